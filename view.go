// Package view exposes a process wide View so applications can render
// without passing the facade around:
//
//	view.SetDefault(v)
//	html, err := view.Render(ctx, "admin::users", data)
//
// The default is created lazily with no disks when SetDefault was never
// called.
package view

import (
	"context"
	"io"
	"sync"

	pkgview "github.com/goliatone/go-view/pkg/view"
)

// View aliases the facade type.
type View = pkgview.View

// Option aliases the facade options.
type Option = pkgview.Option

// Tag describes a custom template tag.
type Tag = pkgview.Tag

// TagContext is passed to Tag render functions.
type TagContext = pkgview.TagContext

var (
	defaultMu   sync.RWMutex
	defaultView *pkgview.View
)

// New constructs a View.
func New(options ...Option) (*View, error) {
	return pkgview.New(options...)
}

// SetDefault installs v as the process wide View.
func SetDefault(v *View) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultView = v
}

// Default returns the process wide View.
func Default() *View {
	defaultMu.RLock()
	v := defaultView
	defaultMu.RUnlock()
	if v != nil {
		return v
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultView == nil {
		defaultView = pkgview.MustNew()
	}
	return defaultView
}

// Render renders a view or component with the default View.
func Render(ctx context.Context, name string, data any) (string, error) {
	return Default().Render(ctx, name, data)
}

// RenderSync is Render without a context.
func RenderSync(name string, data any) (string, error) {
	return Default().RenderSync(name, data)
}

// RenderTo renders name into w with the default View.
func RenderTo(ctx context.Context, w io.Writer, name string, data any) error {
	return Default().RenderTo(ctx, w, name, data)
}

// RenderRaw renders template content with the default View.
func RenderRaw(ctx context.Context, content string, data any) (string, error) {
	return Default().RenderRaw(ctx, content, data)
}

// RenderRawByPath renders the template file at path with the default View.
func RenderRawByPath(ctx context.Context, path string, data any) (string, error) {
	return Default().RenderRawByPath(ctx, path, data)
}

// AddProperty adds a global property to the default View.
func AddProperty(key string, value any) *View {
	return Default().AddProperty(key, value)
}

// CreateViewDisk mounts a disk on the default View.
func CreateViewDisk(nameOrPath string, path ...string) *View {
	return Default().CreateViewDisk(nameOrPath, path...)
}

// CreateComponent registers a component on the default View.
func CreateComponent(name, body string) error {
	return Default().CreateComponent(name, body)
}

// IsNotFound reports whether err was raised for an unknown view or component.
func IsNotFound(err error) bool {
	return pkgview.IsNotFound(err)
}
