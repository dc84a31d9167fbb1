// Package extract pulls indexable text out of files on disk.
package extract

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
)

// binarySniffLen is how much of a file is checked for NUL bytes.
const binarySniffLen = 8000

// DefaultTextExtensions are read whole.
var DefaultTextExtensions = []string{".txt", ".md", ".log"}

// DefaultCodeExtensions are reduced to definition lines plus a leading excerpt.
var DefaultCodeExtensions = []string{".py", ".js", ".ts", ".java", ".go"}

// DefaultHeadLines is the number of leading lines kept from code files.
const DefaultHeadLines = 50

// Config selects which files are indexable.
type Config struct {
	TextExtensions []string
	CodeExtensions []string
	// HeadLines is the leading excerpt length for code files.
	HeadLines int
}

// DefaultConfig returns the default extension lists.
func DefaultConfig() Config {
	return Config{
		TextExtensions: DefaultTextExtensions,
		CodeExtensions: DefaultCodeExtensions,
		HeadLines:      DefaultHeadLines,
	}
}

type kind int

const (
	kindNone kind = iota
	kindText
	kindCode
)

// Extractor dispatches on file extension.
type Extractor struct {
	kinds     map[string]kind
	headLines int
}

// New creates an Extractor. Extensions are matched case-insensitively, with
// or without the leading dot.
func New(cfg Config) *Extractor {
	e := &Extractor{
		kinds:     make(map[string]kind),
		headLines: cfg.HeadLines,
	}
	if e.headLines <= 0 {
		e.headLines = DefaultHeadLines
	}
	for _, ext := range cfg.TextExtensions {
		e.kinds[normalizeExt(ext)] = kindText
	}
	for _, ext := range cfg.CodeExtensions {
		e.kinds[normalizeExt(ext)] = kindCode
	}
	return e
}

// Supports reports whether path has an indexable extension.
func (e *Extractor) Supports(path string) bool {
	return e.kinds[normalizeExt(filepath.Ext(path))] != kindNone
}

// Extract reads path and returns its text. ok is false for unsupported
// extensions and binary content. Read failures are returned as errors.
func (e *Extractor) Extract(ctx context.Context, path string) (string, bool, error) {
	if !e.Supports(path) {
		return "", false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, err
	}
	return e.ExtractBytes(ctx, path, data)
}

// ExtractBytes returns the text of data, dispatching on the extension of path.
func (e *Extractor) ExtractBytes(ctx context.Context, path string, data []byte) (string, bool, error) {
	ext := normalizeExt(filepath.Ext(path))
	k := e.kinds[ext]
	if k == kindNone {
		return "", false, nil
	}
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if IsBinary(data) {
		return "", false, nil
	}

	text := strings.ToValidUTF8(string(data), "")
	if k == kindText {
		return text, true, nil
	}
	return extractCode(ext, text, e.headLines), true, nil
}

// IsBinary reports whether data contains a NUL byte in its leading bytes.
func IsBinary(data []byte) bool {
	if len(data) > binarySniffLen {
		data = data[:binarySniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
