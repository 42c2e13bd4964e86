package view

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-view/pkg/render/template"
)

// Tag aliases the engine agnostic tag description.
type Tag = template.Tag

// TagContext aliases the context a tag renders with.
type TagContext = template.TagContext

// AddTag registers a custom tag:
//
//	v.AddTag("shout", view.Tag{
//		Render: func(ctx view.TagContext) (string, error) {
//			return strings.ToUpper(fmt.Sprint(ctx.Args...)), nil
//		},
//	})
//
//	{% shout "hello" %}
func (v *View) AddTag(name string, tag Tag) error {
	if err := v.engine.AddTag(name, tag); err != nil {
		return err
	}
	v.logger.Debug("registered tag", zap.String("tag", name), zap.Bool("block", tag.Block))
	return nil
}

// RemoveTag drops a custom tag. Unknown names are ignored.
func (v *View) RemoveTag(name string) *View {
	if v.engine.RemoveTag(name) {
		v.logger.Debug("removed tag", zap.String("tag", name))
	}
	return v
}

// HasTag reports whether a custom tag is registered.
func (v *View) HasTag(name string) bool {
	return v.engine.HasTag(name)
}
