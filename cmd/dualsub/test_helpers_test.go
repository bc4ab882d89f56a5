package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"dualsub/internal/config"
	"dualsub/internal/testsupport"
)

const mainSRT = `1
00:00:01,000 --> 00:00:02,000
Hello

2
00:00:03,000 --> 00:00:04,000
World
`

const translationSRT = `1
00:00:01,100 --> 00:00:02,000
Merhaba

2
00:00:03,050 --> 00:00:04,000
Dunya
`

type cliTestEnv struct {
	cfg        *config.Config
	catalog    *httptest.Server
	configPath string
	baseDir    string
	downloads  *atomic.Int32
}

// setupCLITestEnv starts a fake catalog that serves one English and one
// Turkish subtitle and writes a config pointing at it.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", filepath.Join(t.TempDir(), "home"))

	env := &cliTestEnv{downloads: new(atomic.Int32)}
	payloads := map[string]string{"eng": mainSRT, "tur": translationSRT}

	mux := http.NewServeMux()
	mux.HandleFunc("/search/", func(w http.ResponseWriter, r *http.Request) {
		lang := ""
		for _, segment := range strings.Split(r.URL.Path, "/") {
			if value, ok := strings.CutPrefix(segment, "sublanguageid-"); ok {
				lang = value
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if _, ok := payloads[lang]; !ok {
			fmt.Fprint(w, "[]")
			return
		}
		id := map[string]string{"eng": "1001", "tur": "2002"}[lang]
		entries := []map[string]string{{
			"IDSubtitleFile":   id,
			"SubDownloadLink":  env.catalog.URL + "/download/" + lang,
			"SubFormat":        "srt",
			"SubLanguageID":    lang,
			"LanguageName":     lang,
			"MovieReleaseName": "Test.Movie.1994." + lang,
			"SubDownloadsCnt":  "42",
			"SubRating":        "8.5",
		}}
		_ = json.NewEncoder(w).Encode(entries)
	})
	mux.HandleFunc("/download/", func(w http.ResponseWriter, r *http.Request) {
		env.downloads.Add(1)
		lang := strings.TrimPrefix(r.URL.Path, "/download/")
		body, ok := payloads[lang]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	env.catalog = httptest.NewServer(mux)
	t.Cleanup(env.catalog.Close)

	env.cfg = testsupport.NewConfig(t,
		testsupport.WithCatalogURL(env.catalog.URL),
		testsupport.WithLanguages("en", "tr"),
	)
	env.cfg.Catalog.MaxCandidates = 2
	env.baseDir = testsupport.BaseDir(env.cfg)
	env.configPath = filepath.Join(env.baseDir, "config.toml")
	testsupport.WriteConfig(t, env.configPath, env.cfg)
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
