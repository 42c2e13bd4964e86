// Package provider builds a configured View from a config.Config: it adds
// the Env and Config properties, mounts disks, registers components and
// stub templates, and can start a disk watcher.
package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	rootview "github.com/goliatone/go-view"
	"github.com/goliatone/go-view/pkg/config"
	"github.com/goliatone/go-view/pkg/render/template/pongo"
	"github.com/goliatone/go-view/pkg/scaffold"
	"github.com/goliatone/go-view/pkg/view"
	"github.com/goliatone/go-view/pkg/watcher"
)

// Option configures how the provider builds a View.
type Option func(*options)

type options struct {
	logger      *zap.Logger
	workDir     string
	viewOptions []view.Option
	watchOpts   []watcher.Option
	concurrency int
}

// WithLogger sets the logger shared by the view and the watcher.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithWorkDir resolves relative config paths against dir.
func WithWorkDir(dir string) Option {
	return func(o *options) {
		o.workDir = strings.TrimSpace(dir)
	}
}

// WithViewOptions forwards options to view.New. They are applied after the
// ones derived from the config.
func WithViewOptions(opts ...view.Option) Option {
	return func(o *options) {
		o.viewOptions = append(o.viewOptions, opts...)
	}
}

// WithWatcherOptions forwards options to watcher.New.
func WithWatcherOptions(opts ...watcher.Option) Option {
	return func(o *options) {
		o.watchOpts = append(o.watchOpts, opts...)
	}
}

// WithConcurrency bounds how many component files are read at once.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		logger:      zap.NewNop(),
		concurrency: 8,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// Register builds a View from cfg. It does not start a watcher; use Boot
// for that.
func Register(cfg config.Config, opts ...Option) (*view.View, error) {
	return register(cfg, newOptions(opts))
}

// Default is Register followed by installing the View as the package level
// default used by view.Render and friends.
func Default(cfg config.Config, opts ...Option) (*view.View, error) {
	v, err := Register(cfg, opts...)
	if err != nil {
		return nil, err
	}
	rootview.SetDefault(v)
	return v, nil
}

// Provider is a booted View together with its optional watcher.
type Provider struct {
	View    *view.View
	Watcher *watcher.Watcher
}

// Boot is Register plus the disk watcher when cfg.Watch and cfg.Cache are
// set. Call Close to stop the watcher.
func Boot(ctx context.Context, cfg config.Config, opts ...Option) (*Provider, error) {
	o := newOptions(opts)

	v, err := register(cfg, o)
	if err != nil {
		return nil, err
	}

	p := &Provider{View: v}
	if !cfg.Watch || !cfg.Cache {
		return p, nil
	}

	roots := v.DiskRoots()
	names := make([]string, 0, len(roots))
	for name := range roots {
		names = append(names, name)
	}
	sort.Strings(names)

	w, err := watcher.New(v, append([]watcher.Option{
		watcher.WithLogger(o.logger.Named("watcher")),
		watcher.WithExtension(v.Extension()),
	}, o.watchOpts...)...)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if err := w.Add(roots[name]); err != nil {
			o.logger.Warn("cannot watch view disk", zap.String("disk", name), zap.Error(err))
		}
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return nil, err
	}

	p.Watcher = w
	return p, nil
}

// Close stops the watcher, if any.
func (p *Provider) Close() {
	if p != nil && p.Watcher != nil {
		p.Watcher.Stop()
	}
}

func register(cfg config.Config, o *options) (*view.View, error) {
	settings, err := cfg.Settings()
	if err != nil {
		return nil, err
	}

	viewOptions := []view.Option{
		view.WithExtension(cfg.Extension),
		view.WithCache(cfg.Cache),
		view.WithLogger(o.logger),
		view.WithEngineOptions(pongo.WithTemplateFunc(map[string]any{
			"Env":    envProperty,
			"Config": func(key string) any { return settings.Get(key) },
		})),
	}
	if o.workDir != "" {
		viewOptions = append(viewOptions, view.WithWorkDir(o.workDir))
	}
	viewOptions = append(viewOptions, o.viewOptions...)

	v, err := view.New(viewOptions...)
	if err != nil {
		return nil, err
	}

	if cfg.Disk != "" {
		v.CreateViewDisk(cfg.Disk)
	}
	for _, name := range sortedKeys(cfg.NamedDisks) {
		v.CreateViewDisk(name, cfg.NamedDisks[name])
	}

	if err := registerComponents(v, cfg.Components, o.concurrency); err != nil {
		return nil, err
	}

	if cfg.CanRegisterTemplates() {
		if err := registerTemplates(v, cfg, o.logger); err != nil {
			return nil, err
		}
	}

	o.logger.Debug("view registered",
		zap.Strings("disks", v.ViewDisks()),
		zap.Int("components", len(v.Components())),
	)
	return v, nil
}

// envProperty backs the Env property: {{ Env("APP_NAME", "fallback") }}.
func envProperty(key string, fallback ...string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	if len(fallback) > 0 {
		return fallback[0]
	}
	return ""
}

func registerComponents(v *view.View, components map[string]string, limit int) error {
	var g errgroup.Group
	g.SetLimit(limit)

	for _, name := range sortedKeys(components) {
		path := components[name]
		g.Go(func() error {
			return v.CreateComponentByPath(name, path)
		})
	}
	return g.Wait()
}

func registerTemplates(v *view.View, cfg config.Config, logger *zap.Logger) error {
	for _, name := range sortedKeys(cfg.Templates.Paths) {
		if err := v.CreateTemplateByPath(scaffold.StubPrefix+name, cfg.Templates.Paths[name]); err != nil {
			return err
		}
	}

	if cfg.Templates.UseCustom && cfg.Templates.CustomDir != "" {
		if err := registerCustomTemplates(v, v.ResolvePath(cfg.Templates.CustomDir), v.Extension(), logger); err != nil {
			return err
		}
	}

	if !v.HasTemplate(scaffold.StubPrefix + "view") {
		return v.CreateTemplate(scaffold.StubPrefix+"view", scaffold.ViewStub())
	}
	return nil
}

// registerCustomTemplates registers every file in dir carrying ext as
// "artisan::<name>", overriding templates with the same name.
func registerCustomTemplates(v *view.View, dir, ext string, logger *zap.Logger) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("custom templates dir does not exist", zap.String("path", dir))
			return nil
		}
		return fmt.Errorf("provider: read custom templates: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ext {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ext)
		if err := v.CreateTemplateByPath(scaffold.StubPrefix+name, filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
