package utils

import (
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// TruncationMarker is appended to text cut short before it goes into a prompt
const TruncationMarker = "\n[... truncated ...]"

// ErrNoJSON is returned when a model response holds no JSON object
var ErrNoJSON = errors.New("no JSON object in response")

// TextProcessor prepares email text for prompts and recovers JSON from
// model output
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger: logger,
	}
}

// Truncate cuts text to at most maxSize bytes on a rune boundary. A
// non-positive maxSize disables truncation.
func (tp *TextProcessor) Truncate(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	cut := maxSize
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}

	tp.logger.Debug("Text truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", cut),
		zap.Int("max_size", maxSize))

	return text[:cut] + TruncationMarker
}

// Sanitize drops invalid UTF-8 sequences
func (tp *TextProcessor) Sanitize(text string) string {
	if utf8.ValidString(text) {
		return text
	}
	clean := strings.ToValidUTF8(text, "")
	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(clean)))
	return clean
}

// Prepare sanitizes and then truncates text for a prompt
func (tp *TextProcessor) Prepare(text string, maxSize int) string {
	return tp.Truncate(tp.Sanitize(text), maxSize)
}

// ExtractJSON returns the outermost JSON object in a model response. Models
// often wrap JSON in code fences or prose, so everything before the first
// '{' and after the last '}' is dropped.
func ExtractJSON(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return "", ErrNoJSON
	}
	return text[start : end+1], nil
}
