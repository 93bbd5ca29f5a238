// Package extract turns uploaded documents into plain text.
package extract

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Status classifies an extraction outcome.
type Status string

const (
	StatusOK          Status = "ok"
	StatusUnsupported Status = "unsupported"
	StatusFailed      Status = "failed"
)

// Result is the outcome of Extract. Only StatusOK carries meaningful text;
// the other statuses carry a human-readable Message.
type Result struct {
	Text    string
	Status  Status
	Message string
}

// OK reports whether text was extracted.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

type formatFunc func(blob []byte) (string, error)

// Extractor dispatches blobs to a format-specific extractor by extension.
type Extractor struct {
	logger  *zap.Logger
	formats map[string]formatFunc
}

// New builds an extractor supporting pdf, docx and plain-text extensions.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		logger: logger,
		formats: map[string]formatFunc{
			"pdf":  extractPDF,
			"docx": extractDOCX,
			"txt":  extractPlainText,
			"text": extractPlainText,
			"md":   extractPlainText,
			"csv":  extractPlainText,
			"log":  extractPlainText,
		},
	}
}

// Supports reports whether ext has a registered extractor.
func (e *Extractor) Supports(ext string) bool {
	_, ok := e.formats[normalizeExt(ext)]
	return ok
}

// Extract never returns an error and never panics: unknown extensions yield
// StatusUnsupported and library failures yield StatusFailed.
func (e *Extractor) Extract(blob []byte, ext string) (res Result) {
	ext = normalizeExt(ext)
	format, ok := e.formats[ext]
	if !ok {
		return Result{Status: StatusUnsupported, Message: fmt.Sprintf("unsupported file type %q", ext)}
	}
	if len(blob) == 0 {
		return Result{Status: StatusOK}
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("extractor panic recovered", zap.String("ext", ext), zap.Any("panic", r))
			res = Result{Status: StatusFailed, Message: fmt.Sprintf("could not read %s file: %v", ext, r)}
		}
	}()

	text, err := format(blob)
	if err != nil {
		e.logger.Warn("extraction failed", zap.String("ext", ext), zap.Error(err))
		return Result{Status: StatusFailed, Message: fmt.Sprintf("could not read %s file: %v", ext, err)}
	}
	return Result{Text: text, Status: StatusOK}
}

// ExtFromFileName returns the lower-case extension of name without the dot.
func ExtFromFileName(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 || idx == len(name)-1 {
		return ""
	}
	return normalizeExt(name[idx+1:])
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
