package view

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-view/pkg/render/template"
	"github.com/goliatone/go-view/pkg/render/template/pongo"
)

const (
	// DefaultDisk is the disk addressed by names without a "disk::" prefix.
	DefaultDisk = "default"
	// DefaultExtension is appended to view names that lack it.
	DefaultExtension = ".html"

	diskSeparator = "::"
)

// Option customises a View.
type Option func(*View)

// WithExtension overrides the view file extension.
func WithExtension(ext string) Option {
	return func(v *View) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		v.extension = trimmed
	}
}

// WithCache toggles caching of compiled views. Disabled caching recompiles a
// view on every render, which picks up disk edits immediately.
func WithCache(enabled bool) Option {
	return func(v *View) {
		v.cache = enabled
	}
}

// WithLogger sets the logger used for registry events.
func WithLogger(logger *zap.Logger) Option {
	return func(v *View) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithWorkDir sets the directory relative disk and component paths are
// resolved against. It defaults to the process working directory.
func WithWorkDir(dir string) Option {
	return func(v *View) {
		v.workDir = strings.TrimSpace(dir)
	}
}

// WithEngineOptions forwards extra options to the pongo2 engine.
func WithEngineOptions(options ...pongo.Option) Option {
	return func(v *View) {
		v.engineOptions = append(v.engineOptions, options...)
	}
}

// View is the rendering facade. It is safe for concurrent use.
type View struct {
	mu sync.RWMutex

	engine     *pongo.Engine
	disks      map[string]disk
	components map[string]string

	extension     string
	cache         bool
	workDir       string
	engineOptions []pongo.Option
	logger        *zap.Logger
}

var _ template.Source = (*View)(nil)

// New constructs a View backed by a pongo2 engine.
func New(options ...Option) (*View, error) {
	v := &View{
		disks:      make(map[string]disk),
		components: make(map[string]string),
		extension:  DefaultExtension,
		cache:      true,
		logger:     zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(v)
	}

	engineOptions := append([]pongo.Option{
		pongo.WithSource(v),
		pongo.WithCache(v.cache),
		pongo.WithLogger(v.logger.Named("engine")),
	}, v.engineOptions...)

	engine, err := pongo.New(engineOptions...)
	if err != nil {
		return nil, fmt.Errorf("view: create engine: %w", err)
	}
	v.engine = engine
	return v, nil
}

// MustNew is New that panics on error.
func MustNew(options ...Option) *View {
	v, err := New(options...)
	if err != nil {
		panic(err)
	}
	return v
}

// Engine exposes the wrapped engine.
func (v *View) Engine() *pongo.Engine {
	return v.engine
}

// Extension returns the view file extension.
func (v *View) Extension() string {
	return v.extension
}

// Render renders a mounted view or a registered component.
//
//	v.Render(ctx, "welcome", map[string]any{"greeting": "Hello world"})
func (v *View) Render(ctx context.Context, name string, data any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return v.RenderSync(name, data)
}

// RenderSync is Render without a context.
func (v *View) RenderSync(name string, data any) (string, error) {
	if !v.isMountedOrIsTemplate(name) {
		return "", NotFoundError(name)
	}

	out, err := v.engine.RenderTemplate(name, data)
	if err != nil {
		return "", renderError(name, err)
	}
	return out, nil
}

// RenderTo renders a view and writes the result to w.
func (v *View) RenderTo(ctx context.Context, w io.Writer, name string, data any) error {
	out, err := v.Render(ctx, name, data)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// RenderRaw renders template content directly.
//
//	v.RenderRaw(ctx, "Hello {{ value }}", map[string]any{"value": "World!"})
func (v *View) RenderRaw(ctx context.Context, content string, data any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return v.RenderRawSync(content, data)
}

// RenderRawSync is RenderRaw without a context.
func (v *View) RenderRawSync(content string, data any) (string, error) {
	out, err := v.engine.RenderString(content, data)
	if err != nil {
		return "", renderError("<raw>", err)
	}
	return out, nil
}

// RenderRawByPath reads a template file and renders its content raw. The
// file does not need to live inside a mounted disk.
func (v *View) RenderRawByPath(ctx context.Context, path string, data any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return v.RenderRawByPathSync(path, data)
}

// RenderRawByPathSync is RenderRawByPath without a context.
func (v *View) RenderRawByPathSync(path string, data any) (string, error) {
	resolved := v.ResolvePath(path)
	content, err := os.ReadFile(resolved)
	if err != nil {
		return "", fmt.Errorf("view: read %s: %w", resolved, err)
	}
	return v.RenderRawSync(string(content), data)
}

// RegisterFilter registers a template filter on the engine.
func (v *View) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	return v.engine.RegisterFilter(name, fn)
}

// Invalidate drops compiled views so the next render recompiles them. With
// no names every compiled view is dropped.
func (v *View) Invalidate(names ...string) {
	v.engine.Invalidate(names...)
}

func (v *View) isMountedOrIsTemplate(name string) bool {
	return v.HasViewDisk(name) || v.HasTemplate(name)
}

// ResolvePath makes path absolute against the configured work directory.
// Absolute paths are only cleaned.
func (v *View) ResolvePath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	base := v.workDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			v.logger.Warn("cannot resolve working directory", zap.Error(err))
			return filepath.Clean(path)
		}
		base = wd
	}

	resolved := filepath.Join(base, path)
	v.logger.Debug("resolved relative path",
		zap.String("path", path),
		zap.String("base", base),
		zap.String("resolved", resolved),
	)
	return resolved
}
