package subtitles

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"dualsub/internal/catalog"
	"dualsub/internal/cue"
	"dualsub/internal/services"
)

type fakeCatalog struct {
	mu         sync.Mutex
	candidates map[string][]catalog.Candidate
	payloads   map[string]cue.Sequence
	failures   map[string]error
	fetched    []string
	searched   []string
	onFetch    func(ctx context.Context, id string)
}

func (f *fakeCatalog) SearchAndRank(_ context.Context, lang string, _ catalog.SearchParams) []catalog.Candidate {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searched = append(f.searched, lang)
	return f.candidates[lang]
}

func (f *fakeCatalog) FetchAndDecode(ctx context.Context, c catalog.Candidate) (cue.Sequence, error) {
	if f.onFetch != nil {
		f.onFetch(ctx, c.ID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, c.ID)
	if err := f.failures[c.ID]; err != nil {
		return nil, err
	}
	return f.payloads[c.ID], nil
}

func baseRequest() Request {
	return Request{
		MainLanguage:        "en",
		TranslationLanguage: "tur",
		Params:              catalog.SearchParams{IMDBID: "tt0133093"},
	}
}

func TestMergeProducesAlignedTrack(t *testing.T) {
	fake := &fakeCatalog{
		candidates: map[string][]catalog.Candidate{
			"eng": {{ID: "m1"}},
			"tur": {{ID: "t1"}},
		},
		payloads: map[string]cue.Sequence{
			"m1": {{StartMS: 0, EndMS: 2000, Text: "Hello"}, {StartMS: 3000, EndMS: 4000, Text: "Bye"}},
			"t1": {{StartMS: 100, EndMS: 1900, Text: "Merhaba\ndünya"}},
		},
	}
	svc := NewService(fake, WithIDGenerator(func() string { return "req-1" }))
	res, err := svc.Merge(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.Outcome != OutcomeMerged || res.RequestID != "req-1" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.Cues) != 2 {
		t.Fatalf("expected one cue per main cue, got %d", len(res.Cues))
	}
	if res.Cues[0].Text != "Merhaba dünya" || res.Cues[1].Text != "" {
		t.Fatalf("unexpected merged cues: %+v", res.Cues)
	}
	if res.Coverage != 0.5 {
		t.Fatalf("unexpected coverage %v", res.Coverage)
	}
	if res.Main.Candidate == nil || res.Main.Candidate.ID != "m1" {
		t.Fatalf("unexpected main candidate: %+v", res.Main.Candidate)
	}
}

func TestMergeFallsBackToNextCandidate(t *testing.T) {
	fake := &fakeCatalog{
		candidates: map[string][]catalog.Candidate{
			"eng": {{ID: "m1"}, {ID: "m2"}, {ID: "m3"}},
			"tur": {{ID: "t1"}},
		},
		payloads: map[string]cue.Sequence{
			"m2": {{StartMS: 0, EndMS: 0, Text: "untimed"}},
			"m3": {{StartMS: 0, EndMS: 1000, Text: "Hi"}},
			"t1": {{StartMS: 0, EndMS: 1000, Text: "Selam"}},
		},
		failures: map[string]error{
			"m1": services.Wrap(services.ErrDecompression, "textenc", "gunzip", "bad", nil),
		},
	}
	svc := NewService(fake)
	res, err := svc.Merge(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.Outcome != OutcomeMerged {
		t.Fatalf("expected merged outcome, got %s (%s)", res.Outcome, res.Detail)
	}
	if res.Main.Candidate.ID != "m3" || res.Main.Attempts != 3 {
		t.Fatalf("expected third candidate after two failures, got %+v", res.Main)
	}
	if res.Cues[0].Text != "Selam" {
		t.Fatalf("unexpected text %q", res.Cues[0].Text)
	}
}

func TestMergeRespectsMaxCandidates(t *testing.T) {
	boom := services.Wrap(services.ErrNetwork, "catalog", "download", "connection reset", nil)
	fake := &fakeCatalog{
		candidates: map[string][]catalog.Candidate{
			"eng": {{ID: "m1"}, {ID: "m2"}, {ID: "m3"}},
			"tur": {{ID: "t1"}},
		},
		payloads: map[string]cue.Sequence{
			"m3": {{StartMS: 0, EndMS: 1000, Text: "Hi"}},
			"t1": {{StartMS: 0, EndMS: 1000, Text: "Selam"}},
		},
		failures: map[string]error{"m1": boom, "m2": boom},
	}
	svc := NewService(fake, WithMaxCandidates(2))
	res, err := svc.Merge(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.Outcome != OutcomeInsufficientData {
		t.Fatalf("expected insufficient data, got %s", res.Outcome)
	}
	if res.Main.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", res.Main.Attempts)
	}
	if !strings.Contains(res.Detail, "main:") || strings.Contains(res.Detail, "translation:") {
		t.Fatalf("unexpected detail %q", res.Detail)
	}
}

func TestMergeStopsOnNonContentFailure(t *testing.T) {
	fake := &fakeCatalog{
		candidates: map[string][]catalog.Candidate{
			"eng": {{ID: "m1"}, {ID: "m2"}},
			"tur": {{ID: "t1"}},
		},
		payloads: map[string]cue.Sequence{
			"m2": {{StartMS: 0, EndMS: 1000, Text: "Hi"}},
			"t1": {{StartMS: 0, EndMS: 1000, Text: "Selam"}},
		},
		failures: map[string]error{
			"m1": services.Wrap(services.ErrValidation, "catalog", "download", "payload exceeds 16 bytes", nil),
		},
	}
	res, err := NewService(fake).Merge(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.Outcome != OutcomeInsufficientData {
		t.Fatalf("expected insufficient data, got %s", res.Outcome)
	}
	if res.Main.Attempts != 1 {
		t.Fatalf("validation failure must stop the search, got %d attempts", res.Main.Attempts)
	}
	if !strings.Contains(res.Main.Detail, "m1 rejected") {
		t.Fatalf("unexpected detail %q", res.Main.Detail)
	}
	for _, id := range fake.fetched {
		if id == "m2" {
			t.Fatalf("m2 should not be fetched after a validation failure: %v", fake.fetched)
		}
	}
}

func TestMergeFailedTrackDoesNotCancelTheOther(t *testing.T) {
	mainFailed := make(chan struct{})
	var translationCtxErr error
	fake := &fakeCatalog{
		candidates: map[string][]catalog.Candidate{
			"eng": {{ID: "m1"}},
			"tur": {{ID: "t1"}},
		},
		payloads: map[string]cue.Sequence{
			"t1": {{StartMS: 0, EndMS: 1000, Text: "Selam"}},
		},
		failures: map[string]error{
			"m1": services.Wrap(services.ErrConfiguration, "catalog", "download", "bad base url", nil),
		},
	}
	fake.onFetch = func(ctx context.Context, id string) {
		switch id {
		case "m1":
			close(mainFailed)
		case "t1":
			<-mainFailed
			time.Sleep(20 * time.Millisecond)
			translationCtxErr = ctx.Err()
		}
	}
	res, err := NewService(fake).Merge(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if translationCtxErr != nil {
		t.Fatalf("translation fetch saw a cancelled context: %v", translationCtxErr)
	}
	if res.Main.Found() || !res.Translation.Found() {
		t.Fatalf("expected only the translation track, got main=%+v translation=%+v", res.Main, res.Translation)
	}
	if !strings.Contains(res.Detail, "main:") || strings.Contains(res.Detail, "translation:") {
		t.Fatalf("unexpected detail %q", res.Detail)
	}
}

func TestMergeInsufficientDataWhenNothingFound(t *testing.T) {
	fake := &fakeCatalog{}
	res, err := NewService(fake).Merge(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("missing data must not be an error: %v", err)
	}
	if res.Outcome != OutcomeInsufficientData {
		t.Fatalf("unexpected outcome %s", res.Outcome)
	}
	if !strings.Contains(res.Detail, "no English subtitles found") || !strings.Contains(res.Detail, "no Turkish subtitles found") {
		t.Fatalf("unexpected detail %q", res.Detail)
	}
	if len(fake.searched) != 2 {
		t.Fatalf("both languages should be searched, got %v", fake.searched)
	}
}

func TestMergeRejectsBadRequests(t *testing.T) {
	svc := NewService(&fakeCatalog{})
	tests := []struct {
		name string
		req  Request
	}{
		{"bad main language", Request{MainLanguage: "x", TranslationLanguage: "tr", Params: catalog.SearchParams{Query: "a"}}},
		{"bad translation language", Request{MainLanguage: "en", TranslationLanguage: "", Params: catalog.SearchParams{Query: "a"}}},
		{"no identifiers", Request{MainLanguage: "en", TranslationLanguage: "tr"}},
		{"same language", Request{MainLanguage: "en", TranslationLanguage: "english", Params: catalog.SearchParams{Query: "a"}}},
		{"same language alternate code", Request{MainLanguage: "fra", TranslationLanguage: "fre", Params: catalog.SearchParams{Query: "a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Merge(context.Background(), tt.req); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestMergeUsesConfiguredThreshold(t *testing.T) {
	fake := &fakeCatalog{
		candidates: map[string][]catalog.Candidate{
			"eng": {{ID: "m"}},
			"tur": {{ID: "t"}},
		},
		payloads: map[string]cue.Sequence{
			"m": {{StartMS: 1000, EndMS: 1200}},
			"t": {{StartMS: 1300, EndMS: 1500, Text: "yakın"}},
		},
	}
	res, _ := NewService(fake, WithThreshold(50*time.Millisecond)).Merge(context.Background(), baseRequest())
	if res.Cues[0].Text != "" {
		t.Fatalf("tight threshold should not match, got %q", res.Cues[0].Text)
	}
	res, _ = NewService(fake).Merge(context.Background(), baseRequest())
	if res.Cues[0].Text != "yakın" {
		t.Fatalf("default threshold should match, got %q", res.Cues[0].Text)
	}
}
