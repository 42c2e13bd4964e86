package template

// TagContext is passed to a Tag when the template engine reaches it.
type TagContext struct {
	// Name is the tag name as written in the template.
	Name string
	// Args holds the evaluated tag arguments in source order.
	Args []any
	// Body is the rendered content between the opening and closing tag. It
	// is empty for inline tags.
	Body string
}

// Tag describes a custom template tag.
//
// Inline tags are written as {% name arg1, arg2 %}; block tags wrap content
// and must be closed with {% endname %}.
type Tag struct {
	Block  bool
	Render func(ctx TagContext) (string, error)
}
