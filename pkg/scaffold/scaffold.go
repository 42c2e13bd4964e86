// Package scaffold generates view files from stub templates registered on a
// view.
package scaffold

import (
	"context"
	_ "embed"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"go.uber.org/zap"

	"github.com/goliatone/go-view/internal/naming"
)

// StubPrefix is the disk-style prefix stub templates are registered under.
const StubPrefix = "artisan::"

// TextCodeFileExists is attached to the error returned when the generated
// file already exists.
const TextCodeFileExists = "E_FILE_EXISTS"

//go:embed stubs/view.html
var viewStub string

// ViewStub returns the built-in stub used by make:view.
func ViewStub() string {
	return viewStub
}

// Renderer is the subset of *view.View the generator needs.
type Renderer interface {
	RenderSync(name string, data any) (string, error)
	HasTemplate(name string) bool
	CreateTemplate(name, body string) error
}

// File describes a generated file.
type File struct {
	Name    string // base name with extension
	Path    string
	Content string
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger used while generating files.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// Generator renders a stub template into a new file. Configure it with the
// chainable setters and call Make:
//
//	file, err := scaffold.New(v).
//		FileName("userList").
//		Extension("html").
//		Destination("resources/views").
//		Template("view").
//		SetNameProperties(true).
//		Make(ctx)
type Generator struct {
	view        Renderer
	fileName    string
	extension   string
	destination string
	template    string
	nameProps   bool
	force       bool
	properties  map[string]any
	logger      *zap.Logger
}

// New returns a Generator rendering stubs through v.
func New(v Renderer, opts ...Option) *Generator {
	g := &Generator{
		view:       v,
		extension:  ".html",
		template:   StubPrefix + "view",
		properties: map[string]any{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// FileName sets the name of the generated file. It may contain
// sub-directories, e.g. "admin/users".
func (g *Generator) FileName(name string) *Generator {
	g.fileName = strings.TrimSpace(name)
	return g
}

// Extension sets the file extension, with or without the leading dot.
func (g *Generator) Extension(ext string) *Generator {
	ext = strings.TrimSpace(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	g.extension = ext
	return g
}

// Destination sets the directory the file is written to.
func (g *Generator) Destination(dir string) *Generator {
	g.destination = strings.TrimSpace(dir)
	return g
}

// Template sets the stub to render. Bare names are looked up under the
// "artisan::" prefix.
func (g *Generator) Template(name string) *Generator {
	name = strings.TrimSpace(name)
	if name != "" && !strings.Contains(name, "::") {
		name = StubPrefix + name
	}
	g.template = name
	return g
}

// SetNameProperties exposes the name variants (namePascal, nameCamel, ...)
// of the file name to the stub.
func (g *Generator) SetNameProperties(enabled bool) *Generator {
	g.nameProps = enabled
	return g
}

// Properties adds extra data passed to the stub.
func (g *Generator) Properties(props map[string]any) *Generator {
	maps.Copy(g.properties, props)
	return g
}

// Force allows Make to overwrite an existing file.
func (g *Generator) Force(enabled bool) *Generator {
	g.force = enabled
	return g
}

// Path returns where Make writes the file.
func (g *Generator) Path() string {
	name := g.fileName
	if g.extension != "" && !strings.HasSuffix(name, g.extension) {
		name += g.extension
	}
	return filepath.Join(g.destination, filepath.FromSlash(name))
}

// Make renders the stub and writes the file.
func (g *Generator) Make(ctx context.Context) (File, error) {
	if err := ctx.Err(); err != nil {
		return File{}, err
	}
	if g.view == nil {
		return File{}, goerrors.New("scaffold: generator has no view", goerrors.CategoryInternal)
	}
	if g.fileName == "" {
		return File{}, goerrors.New("The file name is required.", goerrors.CategoryBadInput).
			WithTextCode("E_FILE_NAME_REQUIRED")
	}

	path := g.Path()
	if _, err := os.Stat(path); err == nil && !g.force {
		return File{}, goerrors.Wrap(fs.ErrExist, goerrors.CategoryConflict,
			fmt.Sprintf("The file %s already exists.", path),
		).
			WithTextCode(TextCodeFileExists).
			WithMetadata(map[string]any{
				"path": path,
				"help": "Run the command again with --force to overwrite it.",
			})
	}

	if err := g.ensureStub(); err != nil {
		return File{}, err
	}

	data := maps.Clone(g.properties)
	if g.nameProps {
		maps.Copy(data, naming.Properties(g.fileName))
	}

	content, err := g.view.RenderSync(g.template, data)
	if err != nil {
		return File{}, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return File{}, fmt.Errorf("scaffold: create destination: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return File{}, fmt.Errorf("scaffold: write %s: %w", path, err)
	}

	g.logger.Debug("generated file",
		zap.String("path", path),
		zap.String("template", g.template),
	)

	return File{Name: filepath.Base(path), Path: path, Content: content}, nil
}

// ensureStub registers the built-in view stub when nothing else provides
// the default template.
func (g *Generator) ensureStub() error {
	if g.template != StubPrefix+"view" || g.view.HasTemplate(g.template) {
		return nil
	}
	g.logger.Debug("registering built-in view stub")
	return g.view.CreateTemplate(g.template, viewStub)
}
