// Package template defines the engine-agnostic contracts the view facade
// relies on: a TemplateRenderer that compiles and executes named or inline
// templates, a Source that resolves template names to content, and the Tag
// types custom template tags are expressed with.
package template
