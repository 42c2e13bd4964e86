package template

import (
	"io"
)

// TemplateRenderer is the seam between the view facade and the wrapped
// template engine.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}

// Source resolves a template name to its raw content. Implementations decide
// how names map to storage (in-memory components, mounted disks, fs.FS).
type Source interface {
	Open(name string) (io.Reader, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(name string) (io.Reader, error)

// Open calls f(name).
func (f SourceFunc) Open(name string) (io.Reader, error) {
	return f(name)
}
