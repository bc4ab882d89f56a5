package textenc

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"dualsub/internal/logging"
	"dualsub/internal/services"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	utf8BOM   = []byte{0xef, 0xbb, 0xbf}
)

// Normalizer turns raw subtitle payloads into UTF-8 text.
type Normalizer struct {
	logger   *slog.Logger
	detector *chardet.Detector
	detect   func([]byte) (string, bool)
	maxBytes int64
}

// Option customizes a Normalizer.
type Option func(*Normalizer)

// WithLogger attaches a logger for detection diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		n.logger = logging.NewComponentLogger(logger, "textenc")
	}
}

// WithMaxDecompressedBytes caps how much a gzip payload may expand to.
func WithMaxDecompressedBytes(limit int64) Option {
	return func(n *Normalizer) {
		if limit > 0 {
			n.maxBytes = limit
		}
	}
}

// New constructs a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		logger:   logging.NewNop(),
		detector: chardet.NewTextDetector(),
		maxBytes: 64 << 20,
	}
	n.detect = n.detectCharset
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize decompresses (when gzip), detects the charset of, and decodes
// data. sourceHint is the download URL or file name the bytes came from; a
// ".gz" suffix forces decompression.
func (n *Normalizer) Normalize(data []byte, sourceHint string) (string, error) {
	if isGzip(data, sourceHint) {
		inflated, err := n.gunzip(data)
		if err != nil {
			return "", services.Wrap(services.ErrDecompression, "textenc", "gunzip", "decompress subtitle payload", err)
		}
		data = inflated
	}

	label, detected := n.detect(data)
	if !detected && bytes.HasPrefix(data, utf8BOM) {
		data = data[len(utf8BOM):]
	}
	enc := lookupEncoding(label)

	text, err := decode(data, enc)
	if err != nil {
		logging.WarnWithContext(n.logger, "charset decode failed; retrying as latin1", "charset_fallback",
			logging.String("charset", label),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "subtitle file may use an unsupported or mislabelled encoding"),
			logging.String(logging.FieldImpact, "non-ASCII characters may render incorrectly"),
		)
		text, err = decode(data, charmap.ISO8859_1)
		if err != nil {
			return "", services.Wrap(services.ErrDecode, "textenc", "decode", "latin1 fallback failed", err)
		}
		return text, nil
	}
	if enc == nil {
		text = strings.TrimPrefix(text, "\ufeff")
	}
	return text, nil
}

// Normalize runs a default Normalizer.
func Normalize(data []byte, sourceHint string) (string, error) {
	return New().Normalize(data, sourceHint)
}

func isGzip(data []byte, hint string) bool {
	if bytes.HasPrefix(data, gzipMagic) {
		return true
	}
	hint = strings.ToLower(strings.TrimSpace(hint))
	if idx := strings.IndexAny(hint, "?#"); idx >= 0 {
		hint = hint[:idx]
	}
	return strings.HasSuffix(hint, ".gz")
}

func (n *Normalizer) gunzip(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	inflated, err := io.ReadAll(io.LimitReader(reader, n.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(inflated)) > n.maxBytes {
		return nil, fmt.Errorf("decompressed payload exceeds %d bytes", n.maxBytes)
	}
	return inflated, nil
}

// detectCharset returns the lowercased charset label and whether detection
// produced a result at all.
func (n *Normalizer) detectCharset(data []byte) (string, bool) {
	if len(data) == 0 {
		return "", false
	}
	result, err := n.detector.DetectBest(data)
	if err != nil || result == nil || result.Charset == "" {
		n.logger.Debug("charset detection returned no result",
			logging.String(logging.FieldEventType, "charset_undetected"),
			logging.Error(err),
		)
		return "", false
	}
	label := strings.ToLower(result.Charset)
	n.logger.Debug("charset detected",
		logging.String(logging.FieldEventType, "charset_detected"),
		logging.String("charset", label),
		logging.Int("confidence", result.Confidence),
		logging.Bool("utf8_fallback", !supported(label)),
	)
	return label, true
}

// decode converts data with enc. A nil enc means strict UTF-8: invalid
// sequences are an error rather than replacement characters.
func decode(data []byte, enc encoding.Encoding) (string, error) {
	if enc == nil {
		if !utf8.Valid(data) {
			return "", errInvalidUTF8
		}
		return string(data), nil
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
