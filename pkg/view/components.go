package view

import (
	"errors"
	"io/fs"
	"os"
	"sort"

	"go.uber.org/zap"
)

// CreateComponent registers an in-memory component. Names must be unique;
// use CreateTemplate to replace an existing entry. An empty body is valid.
//
//	v.CreateComponent("button", `<button class="{{ type }}">{{ label }}</button>`)
//
// Other views use components through include:
//
//	{% include "button" with type="primary" label="Get started" %}
func (v *View) CreateComponent(name string, body string) error {
	return v.CreateComponentValue(name, &body)
}

// CreateComponentValue is CreateComponent for callers holding an optional
// body. A nil body is rejected with an E_EMPTY_COMPONENT error.
func (v *View) CreateComponentValue(name string, body *string) error {
	if body == nil {
		return EmptyComponentError(name)
	}

	v.mu.Lock()
	if _, exists := v.components[name]; exists {
		v.mu.Unlock()
		return AlreadyExistComponentError(name)
	}
	v.components[name] = *body
	v.mu.Unlock()

	v.logger.Debug("registered component", zap.String("component", name))
	v.engine.Invalidate()
	return nil
}

// CreateComponentByPath registers the content of a file as a component,
// replacing any entry with the same name. A missing file is an error.
func (v *View) CreateComponentByPath(name, path string) error {
	resolved := v.ResolvePath(path)
	content, err := os.ReadFile(resolved)
	if err != nil {
		return readComponentError(name, resolved, err)
	}
	return v.CreateTemplate(name, string(content))
}

// HasComponent reports whether a component is registered under name.
func (v *View) HasComponent(name string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.components[name]
	return ok
}

// RemoveComponent drops a component. Unknown names are ignored.
func (v *View) RemoveComponent(name string) *View {
	v.mu.Lock()
	_, ok := v.components[name]
	delete(v.components, name)
	v.mu.Unlock()

	if !ok {
		return v
	}

	v.logger.Debug("removed component", zap.String("component", name))
	v.engine.Invalidate()
	return v
}

// Components returns the sorted component names.
func (v *View) Components() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	names := make([]string, 0, len(v.components))
	for name := range v.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateTemplate registers an in-memory template, replacing an existing
// entry with the same name.
//
//	v.CreateTemplate("artisan::command", "type {{ namePascal }} struct{}")
//	v.Render(ctx, "artisan::command", map[string]any{"namePascal": "MyCommand"})
func (v *View) CreateTemplate(name, body string) error {
	if v.HasTemplate(name) {
		v.logger.Debug("template already exists and will be replaced", zap.String("template", name))
		v.RemoveTemplate(name)
	}
	return v.CreateComponent(name, body)
}

// CreateTemplateByPath is CreateTemplate reading the body from a file. A
// missing file is ignored.
func (v *View) CreateTemplateByPath(name, path string) error {
	resolved := v.ResolvePath(path)
	content, err := os.ReadFile(resolved)
	if errors.Is(err, fs.ErrNotExist) {
		v.logger.Debug("template file does not exist, skipping",
			zap.String("template", name),
			zap.String("path", resolved),
		)
		return nil
	}
	if err != nil {
		return readComponentError(name, resolved, err)
	}
	return v.CreateTemplate(name, string(content))
}

// HasTemplate is HasComponent; templates and components share a registry.
func (v *View) HasTemplate(name string) bool {
	return v.HasComponent(name)
}

// RemoveTemplate drops a template. Unknown names are ignored.
func (v *View) RemoveTemplate(name string) *View {
	if !v.HasTemplate(name) {
		v.logger.Debug("template does not exist, skipping removal", zap.String("template", name))
		return v
	}
	return v.RemoveComponent(name)
}
