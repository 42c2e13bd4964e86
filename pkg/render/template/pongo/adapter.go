package pongo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/flosch/pongo2/v6"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-view/pkg/render/template"
)

// Option configures the pongo2 adapter before construction.
type Option func(*config)

type config struct {
	source     template.Source
	templates  fs.FS
	cache      bool
	setName    string
	templateFn map[string]any
	globalData map[string]any
	logger     *zap.Logger
}

// WithSource resolves template names through src. This is how the view
// facade exposes its disks and in-memory components to the engine.
func WithSource(src template.Source) Option {
	return func(cfg *config) {
		cfg.source = src
	}
}

// WithFS adds an fs.FS loader consulted after the source.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithCache toggles caching of compiled named templates. When disabled every
// RenderTemplate call recompiles from the source.
func WithCache(enabled bool) Option {
	return func(cfg *config) {
		cfg.cache = enabled
	}
}

// WithSetName names the underlying pongo2 template set.
func WithSetName(name string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			cfg.setName = trimmed
		}
	}
}

// WithTemplateFunc registers helper functions or filters when the engine loads.
func WithTemplateFunc(funcs map[string]any) Option {
	return func(cfg *config) {
		if len(funcs) == 0 {
			return
		}
		if cfg.templateFn == nil {
			cfg.templateFn = make(map[string]any, len(funcs))
		}
		for name, fn := range funcs {
			cfg.templateFn[strings.TrimSpace(name)] = fn
		}
	}
}

// WithGlobalData seeds global context values available to every template.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globalData == nil {
			cfg.globalData = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globalData[strings.TrimSpace(key)] = value
		}
	}
}

// WithLogger sets the logger used for compile and cache events.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Engine satisfies the template.TemplateRenderer contract using a pongo2
// template set whose loaders resolve names through a template.Source.
type Engine struct {
	mu sync.RWMutex
	// parseMu serialises parsing; pongo2 template sets flag their first
	// compilation without synchronisation.
	parseMu sync.Mutex

	templateSet *pongo2.TemplateSet
	templates   map[string]*pongo2.Template
	compiles    singleflight.Group
	// generation counts invalidations. A compile started before an
	// invalidation must not land in the cache.
	generation uint64
	cache       bool
	tags        *tagTable
	logger      *zap.Logger
}

var _ template.TemplateRenderer = (*Engine)(nil)

// New constructs an Engine using the provided configuration options.
func New(options ...Option) (*Engine, error) {
	cfg := &config{
		cache:   true,
		setName: "view",
		logger:  zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	if cfg.source == nil && cfg.templates == nil {
		return nil, errors.New("pongo: need to provide a source or fs.FS")
	}

	var loaders []pongo2.TemplateLoader
	if cfg.source != nil {
		loaders = append(loaders, &sourceLoader{source: cfg.source})
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}

	engine := &Engine{
		templateSet: pongo2.NewSet(cfg.setName, loaders...),
		templates:   make(map[string]*pongo2.Template),
		cache:       cfg.cache,
		tags:        newTagTable(),
		logger:      cfg.logger,
	}
	engine.templateSet.Globals[tagTableKey] = engine.tags
	registerDefaultFilters()

	if err := engine.GlobalContext(cfg.globalData); err != nil {
		return nil, fmt.Errorf("pongo: apply global data: %w", err)
	}
	for name, fn := range cfg.templateFn {
		if err := engine.registerTemplateFunc(name, fn); err != nil {
			return nil, fmt.Errorf("pongo: register template func %q: %w", name, err)
		}
	}

	return engine, nil
}

// Render renders inline content when name looks like template markup and a
// named template otherwise.
func (e *Engine) Render(name string, data any, out ...io.Writer) (string, error) {
	if isTemplateContent(name) {
		return e.RenderString(name, data, out...)
	}
	return e.RenderTemplate(name, data, out...)
}

// RenderTemplate compiles (or reuses) the named template and executes it.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.templateSet == nil {
		return "", errors.New("pongo: engine is nil")
	}

	tmpl, err := e.getTemplate(name)
	if err != nil {
		return "", err
	}

	viewContext, err := convertToContext(data)
	if err != nil {
		return "", fmt.Errorf("pongo: convert data: %w", err)
	}

	var buf bytes.Buffer

	e.mu.RLock()
	err = tmpl.ExecuteWriter(viewContext, &buf)
	e.mu.RUnlock()

	if err != nil {
		return "", fmt.Errorf("pongo: execute template %q: %w", name, err)
	}

	return writeOut(buf.String(), out)
}

// RenderString parses templateContent and executes it. Inline templates are
// never cached.
func (e *Engine) RenderString(templateContent string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.templateSet == nil {
		return "", errors.New("pongo: engine is nil")
	}

	tmpl, err := e.parse(func() (*pongo2.Template, error) {
		return e.templateSet.FromString(templateContent)
	})
	if err != nil {
		return "", fmt.Errorf("pongo: parse template string: %w", err)
	}

	viewContext, err := convertToContext(data)
	if err != nil {
		return "", fmt.Errorf("pongo: convert data: %w", err)
	}

	var buf bytes.Buffer

	e.mu.RLock()
	err = tmpl.ExecuteWriter(viewContext, &buf)
	e.mu.RUnlock()

	if err != nil {
		return "", fmt.Errorf("pongo: execute template string: %w", err)
	}

	return writeOut(buf.String(), out)
}

// RegisterFilter registers a template filter. pongo2 filters are process
// wide, so registering a name twice fails.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	if strings.TrimSpace(name) == "" || fn == nil {
		return errors.New("pongo: filter name and function required")
	}

	filter := func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var paramVal any
		if param != nil {
			paramVal = param.Interface()
		}
		result, err := fn(in.Interface(), paramVal)
		if err != nil {
			return nil, &pongo2.Error{Sender: "custom_filter", OrigError: err}
		}
		return pongo2.AsValue(result), nil
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if pongo2.FilterExists(name) {
		return fmt.Errorf("pongo: filter %q already exists", name)
	}
	return pongo2.RegisterFilter(name, filter)
}

// GlobalContext merges data into the globals shared by every template.
func (e *Engine) GlobalContext(data any) error {
	if e == nil || e.templateSet == nil {
		return errors.New("pongo: engine is nil")
	}
	if data == nil {
		return nil
	}

	globalCtx, err := convertToContext(data)
	if err != nil {
		return err
	}
	delete(globalCtx, tagTableKey)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.templateSet.Globals.Update(globalCtx)
	return nil
}

// SetGlobal stores a single global value. Functions are kept callable and
// other values are stored as given.
func (e *Engine) SetGlobal(key string, value any) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("pongo: global key required")
	}
	if key == tagTableKey {
		return fmt.Errorf("pongo: global key %q is reserved", key)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.templateSet.Globals[key] = value
	return nil
}

// DeleteGlobal removes a global value. It reports whether the key existed.
func (e *Engine) DeleteGlobal(key string) bool {
	if key == tagTableKey {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.templateSet.Globals[key]; !ok {
		return false
	}
	delete(e.templateSet.Globals, key)
	return true
}

// Global returns a global value by key.
func (e *Engine) Global(key string) (any, bool) {
	if key == tagTableKey {
		return nil, false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	value, ok := e.templateSet.Globals[key]
	return value, ok
}

// Globals returns a copy of the user visible globals.
func (e *Engine) Globals() map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[string]any, len(e.templateSet.Globals))
	for key, value := range e.templateSet.Globals {
		if key == tagTableKey {
			continue
		}
		out[key] = value
	}
	return out
}

// Invalidate drops compiled templates. With no names every cached template
// is dropped; includes are resolved at compile time, so callers that change
// a shared component should invalidate everything.
func (e *Engine) Invalidate(names ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.generation++

	if len(names) == 0 {
		if len(e.templates) > 0 {
			e.logger.Debug("dropping compiled templates", zap.Int("count", len(e.templates)))
		}
		e.templates = make(map[string]*pongo2.Template)
		return
	}
	for _, name := range names {
		delete(e.templates, name)
	}
}

// Cached returns the sorted names of compiled templates held in the cache.
func (e *Engine) Cached() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.templates))
	for name := range e.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Engine) registerTemplateFunc(name string, fn any) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || fn == nil {
		return nil
	}

	if filter, ok := fn.(pongo2.FilterFunction); ok {
		registryMu.Lock()
		defer registryMu.Unlock()
		if pongo2.FilterExists(trimmed) {
			return nil
		}
		return pongo2.RegisterFilter(trimmed, filter)
	}

	if !isCallable(fn) {
		return nil
	}

	return e.SetGlobal(trimmed, fn)
}

func (e *Engine) getTemplate(name string) (*pongo2.Template, error) {
	if !e.cache {
		return e.compile(name)
	}

	e.mu.RLock()
	if tmpl, ok := e.templates[name]; ok {
		e.mu.RUnlock()
		return tmpl, nil
	}
	generation := e.generation
	e.mu.RUnlock()

	// Keyed by generation so callers arriving after an invalidation never
	// join a compile that read stale sources.
	key := strconv.FormatUint(generation, 10) + ":" + name
	result, err, _ := e.compiles.Do(key, func() (any, error) {
		tmpl, err := e.compile(name)
		if err != nil {
			return nil, err
		}

		e.mu.Lock()
		if e.generation == generation {
			e.templates[name] = tmpl
		}
		e.mu.Unlock()
		return tmpl, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*pongo2.Template), nil
}

func (e *Engine) parse(fn func() (*pongo2.Template, error)) (*pongo2.Template, error) {
	e.parseMu.Lock()
	defer e.parseMu.Unlock()
	registryMu.RLock()
	defer registryMu.RUnlock()
	return fn()
}

func (e *Engine) compile(name string) (*pongo2.Template, error) {
	started := time.Now()
	tmpl, err := e.parse(func() (*pongo2.Template, error) {
		return e.templateSet.FromFile(name)
	})
	if err != nil {
		return nil, fmt.Errorf("pongo: load template %q: %w", name, err)
	}
	e.logger.Debug("compiled template",
		zap.String("name", name),
		zap.Duration("took", time.Since(started)),
	)
	return tmpl, nil
}

type sourceLoader struct {
	source template.Source
}

// Abs keeps names as they are: view names are identifiers such as
// "admin::users/list" or "ui.button", not filesystem paths.
func (l *sourceLoader) Abs(_, name string) string {
	return strings.TrimSpace(name)
}

func (l *sourceLoader) Get(path string) (io.Reader, error) {
	return l.source.Open(path)
}

func writeOut(rendered string, out []io.Writer) (string, error) {
	for _, w := range out {
		if w == nil {
			continue
		}
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

func isTemplateContent(s string) bool {
	return strings.Contains(s, "{{") || strings.Contains(s, "{%")
}

func isCallable(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.IsValid() && rv.Kind() == reflect.Func
}

func convertToContext(data any) (pongo2.Context, error) {
	switch v := data.(type) {
	case nil:
		return pongo2.Context{}, nil
	case pongo2.Context:
		return convertMapToContext(map[string]any(v))
	case map[string]any:
		return convertMapToContext(v)
	default:
		m, err := jsonToMap(v)
		if err != nil {
			return nil, err
		}
		return convertMapToContext(m)
	}
}

func convertMapToContext(in map[string]any) (pongo2.Context, error) {
	out := make(pongo2.Context, len(in))
	for key, value := range in {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		converted, err := convertValue(value)
		if err != nil {
			return nil, err
		}
		out[key] = converted
	}
	return out, nil
}

func convertValue(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if isCallable(value) {
		return value, nil
	}

	switch v := value.(type) {
	case string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64,
		time.Time, json.Number:
		return v, nil
	case pongo2.Context:
		return convertMap(map[string]any(v))
	case map[string]any:
		return convertMap(v)
	case []any:
		return convertSlice(v)
	default:
		raw, err := jsonToAny(v)
		if err != nil {
			return nil, err
		}
		switch decoded := raw.(type) {
		case map[string]any:
			return convertMap(decoded)
		case []any:
			return convertSlice(decoded)
		default:
			return decoded, nil
		}
	}
}

func convertMap(in map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(in))
	for key, value := range in {
		converted, err := convertValue(value)
		if err != nil {
			return nil, err
		}
		out[key] = converted
	}
	return out, nil
}

func convertSlice(in []any) ([]any, error) {
	out := make([]any, 0, len(in))
	for _, value := range in {
		converted, err := convertValue(value)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return out, nil
}

func jsonToMap(v any) (map[string]any, error) {
	out := map[string]any{}
	if err := jsonRoundTrip(v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func jsonToAny(v any) (any, error) {
	var out any
	if err := jsonRoundTrip(v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// jsonRoundTrip decodes numbers as json.Number so integers render without a
// float formatting suffix.
func jsonRoundTrip(in any, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(out)
}
