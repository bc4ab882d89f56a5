package subtitles

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"dualsub/internal/align"
	"dualsub/internal/catalog"
	"dualsub/internal/cue"
	"dualsub/internal/language"
	"dualsub/internal/logging"
	"dualsub/internal/services"
)

const defaultMaxCandidates = 3

type catalogClient interface {
	SearchAndRank(ctx context.Context, languageCode string, params catalog.SearchParams) []catalog.Candidate
	FetchAndDecode(ctx context.Context, candidate catalog.Candidate) (cue.Sequence, error)
}

// Service fetches a main and a translation track and merges them.
type Service struct {
	catalog       catalogClient
	aligner       *align.Aligner
	threshold     time.Duration
	maxCandidates int
	logger        *slog.Logger
	newID         func() string
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logging.NewComponentLogger(logger, "subtitles")
	}
}

// WithThreshold overrides the alignment tolerance.
func WithThreshold(threshold time.Duration) ServiceOption {
	return func(s *Service) {
		s.threshold = threshold
	}
}

// WithMaxCandidates bounds how many ranked candidates are tried per language.
func WithMaxCandidates(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.maxCandidates = n
		}
	}
}

// WithIDGenerator replaces the request id source (primarily for tests).
func WithIDGenerator(fn func() string) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService constructs a Service around a catalog client.
func NewService(client catalogClient, opts ...ServiceOption) *Service {
	s := &Service{
		catalog:       client,
		threshold:     align.DefaultThreshold,
		maxCandidates: defaultMaxCandidates,
		logger:        logging.NewNop(),
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.aligner = align.New(s.threshold, s.logger)
	return s
}

// Request identifies the video and the language pair to merge.
type Request struct {
	MainLanguage        string
	TranslationLanguage string
	Params              catalog.SearchParams
}

// Outcome classifies a merge result.
type Outcome string

const (
	OutcomeMerged           Outcome = "merged"
	OutcomeInsufficientData Outcome = "insufficient_data"
)

// Track describes what was found for one language.
type Track struct {
	Language   string
	Candidate  *catalog.Candidate
	Cues       cue.Sequence
	Candidates int
	Attempts   int
	Detail     string
}

// Found reports whether the track produced cues.
func (t Track) Found() bool {
	return len(t.Cues) > 0
}

// Result is the outcome of a merge. Cues holds one entry per main cue when
// Outcome is OutcomeMerged.
type Result struct {
	RequestID   string
	Outcome     Outcome
	Detail      string
	Cues        cue.Sequence
	Coverage    float64
	Main        Track
	Translation Track
}

// Merge fetches both tracks concurrently and aligns the translation onto the
// main timing. A missing track is reported through Result.Outcome; the error
// return is reserved for unusable requests.
func (s *Service) Merge(ctx context.Context, req Request) (Result, error) {
	mainLang, transLang, err := normalizeRequest(req)
	if err != nil {
		return Result{}, err
	}
	result := Result{RequestID: s.newID()}
	ctx = services.WithRequestID(ctx, result.RequestID)
	logger := logging.WithContext(ctx, s.logger)
	logger.Info("dual subtitle merge started",
		logging.String(logging.FieldEventType, "merge_started"),
		logging.String("main_language", mainLang),
		logging.String("translation_language", transLang),
	)

	// Tracks report failures in their Detail; neither side cancels the other.
	var g errgroup.Group
	g.Go(func() error {
		result.Main = s.FetchTrack(ctx, mainLang, req.Params)
		return nil
	})
	g.Go(func() error {
		result.Translation = s.FetchTrack(ctx, transLang, req.Params)
		return nil
	})
	g.Wait() //nolint:errcheck

	if !result.Main.Found() || !result.Translation.Found() {
		result.Outcome = OutcomeInsufficientData
		result.Detail = insufficientDetail(result.Main, result.Translation)
		logging.WarnWithContext(logger, "not enough subtitle data to merge", "merge_insufficient_data",
			logging.String("reason", result.Detail),
			logging.String(logging.FieldErrorHint, "check the video identifiers or try another language"),
			logging.String(logging.FieldImpact, "no dual subtitle produced"),
		)
		return result, nil
	}

	result.Outcome = OutcomeMerged
	result.Cues = s.aligner.Merge(result.Main.Cues, result.Translation.Cues)
	result.Coverage = align.Coverage(result.Cues)
	logger.Info("dual subtitle merge complete",
		logging.String(logging.FieldEventType, "merge_complete"),
		logging.Int("cues", len(result.Cues)),
		logging.Float64("coverage", result.Coverage),
		logging.String("main_subtitle_id", result.Main.Candidate.ID),
		logging.String("translation_subtitle_id", result.Translation.Candidate.ID),
	)
	return result, nil
}

// FetchTrack searches for lang and tries ranked candidates until one decodes
// to at least one timed cue. Only no-content failures (network, decode, empty
// payload) move on to the next candidate; any other error ends the search.
func (s *Service) FetchTrack(ctx context.Context, lang string, params catalog.SearchParams) Track {
	ctx = services.WithLanguage(ctx, lang)
	logger := logging.WithContext(ctx, s.logger)
	track := Track{Language: lang}

	candidates := s.catalog.SearchAndRank(ctx, lang, params)
	track.Candidates = len(candidates)
	if len(candidates) == 0 {
		track.Detail = fmt.Sprintf("no %s subtitles found", language.DisplayName(lang))
		return track
	}

	var lastErr error
	for i, candidate := range candidates {
		if i >= s.maxCandidates {
			break
		}
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
		track.Attempts++
		seq, err := s.catalog.FetchAndDecode(ctx, candidate)
		if err == nil && seq.Timed() == 0 {
			err = services.Wrap(services.ErrDecode, "subtitles", "fetch track", "subtitle has no timed cues", nil)
		}
		if err != nil {
			lastErr = err
			if !catalog.IsNoContent(err) {
				// Validation and configuration failures repeat for every candidate.
				logger.Error("subtitle candidate rejected; not trying further candidates",
					logging.String(logging.FieldEventType, "candidate_rejected"),
					logging.SubtitleID(candidate.ID),
					logging.Int("attempt", track.Attempts),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check the catalog settings in the config file"),
				)
				track.Detail = fmt.Sprintf("%s candidate %s rejected: %v", language.DisplayName(lang), candidate.ID, err)
				return track
			}
			logging.WarnWithContext(logger, "subtitle candidate unusable; trying next", "candidate_failed",
				logging.SubtitleID(candidate.ID),
				logging.Int("attempt", track.Attempts),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "the catalog copy may be corrupt or in an unsupported format"),
				logging.String(logging.FieldImpact, "falling back to a less popular subtitle"),
			)
			continue
		}
		chosen := candidate
		track.Candidate = &chosen
		track.Cues = seq
		logger.Info("subtitle track selected",
			logging.String(logging.FieldEventType, "track_selected"),
			logging.SubtitleID(candidate.ID),
			logging.String("release", candidate.ReleaseName),
			logging.Int64("downloads", candidate.DownloadCount),
			logging.Int("cues", len(seq)),
		)
		return track
	}
	track.Detail = fmt.Sprintf("%d %s candidates failed to download or decode", track.Attempts, language.DisplayName(lang))
	if lastErr != nil {
		track.Detail += ": " + lastErr.Error()
	}
	return track
}

func normalizeRequest(req Request) (string, string, error) {
	mainLang := language.CatalogCode(req.MainLanguage)
	transLang := language.CatalogCode(req.TranslationLanguage)
	if mainLang == "" {
		return "", "", services.Wrap(services.ErrValidation, "subtitles", "merge", fmt.Sprintf("invalid main language %q", req.MainLanguage), nil)
	}
	if transLang == "" {
		return "", "", services.Wrap(services.ErrValidation, "subtitles", "merge", fmt.Sprintf("invalid translation language %q", req.TranslationLanguage), nil)
	}
	if language.SameLanguage(mainLang, transLang) {
		return "", "", services.Wrap(services.ErrValidation, "subtitles", "merge", fmt.Sprintf("main and translation languages are both %s", language.DisplayName(mainLang)), nil)
	}
	if req.Params.IsEmpty() {
		return "", "", services.Wrap(services.ErrValidation, "subtitles", "merge", "an IMDb id, query, or movie hash is required", nil)
	}
	return mainLang, transLang, nil
}

func insufficientDetail(main, trans Track) string {
	var parts []string
	if !main.Found() {
		parts = append(parts, "main: "+main.Detail)
	}
	if !trans.Found() {
		parts = append(parts, "translation: "+trans.Detail)
	}
	return strings.Join(parts, "; ")
}
