package testsupport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// MapSource is an in-memory template source keyed by template name. It is
// safe for concurrent use so tests can mutate it while an engine renders.
type MapSource struct {
	mu        sync.RWMutex
	templates map[string]string
	opened    map[string]int
}

// NewMapSource seeds a MapSource with the given templates.
func NewMapSource(templates map[string]string) *MapSource {
	src := &MapSource{
		templates: make(map[string]string, len(templates)),
		opened:    make(map[string]int),
	}
	for name, body := range templates {
		src.templates[name] = body
	}
	return src
}

// Open satisfies template.Source.
func (s *MapSource) Open(name string) (io.Reader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, ok := s.templates[name]
	if !ok {
		return nil, fmt.Errorf("testsupport: template %q: %w", name, fs.ErrNotExist)
	}
	s.opened[name]++
	return strings.NewReader(body), nil
}

// Set adds or replaces a template body.
func (s *MapSource) Set(name, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[name] = body
}

// Opened reports how many times name was read by an engine.
func (s *MapSource) Opened(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opened[name]
}

// WriteFiles writes files relative to dir, creating parent directories as
// needed. It returns dir for chaining into constructors.
func WriteFiles(t *testing.T, dir string, files map[string]string) string {
	t.Helper()

	for name, body := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir fixture dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}
	return dir
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
