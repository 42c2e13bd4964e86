package pongo

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-view/pkg/render/template"
)

// tagTableKey is the reserved global under which each engine exposes its
// tag table to executing templates.
const tagTableKey = "__view_tags"

// pongo2 keeps tag parsers in a process wide registry, so a tag name is
// bridged once and dispatched per engine through the tag table found in
// the execution context.
var bridged = map[string]bool{}

type tagTable struct {
	mu   sync.RWMutex
	tags map[string]template.Tag
}

func newTagTable() *tagTable {
	return &tagTable{tags: make(map[string]template.Tag)}
}

func (t *tagTable) lookup(name string) (template.Tag, bool) {
	if t == nil {
		return template.Tag{}, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	tag, ok := t.tags[name]
	return tag, ok
}

// AddTag makes a custom tag available to templates rendered by this engine.
// Adding a tag under an existing name replaces it.
func (e *Engine) AddTag(name string, tag template.Tag) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("pongo: tag name required")
	}
	if tag.Render == nil {
		return fmt.Errorf("pongo: tag %q has no render function", name)
	}
	if err := bridgeTag(name, tag.Block); err != nil {
		return err
	}

	e.tags.mu.Lock()
	e.tags.tags[name] = tag
	e.tags.mu.Unlock()

	// templates parsed before the tag existed may have failed to compile
	e.Invalidate()
	return nil
}

// RemoveTag drops a custom tag. Templates that still use it fail when they
// are executed. It reports whether the tag existed.
func (e *Engine) RemoveTag(name string) bool {
	e.tags.mu.Lock()
	defer e.tags.mu.Unlock()

	if _, ok := e.tags.tags[name]; !ok {
		return false
	}
	delete(e.tags.tags, name)
	return true
}

// HasTag reports whether a custom tag is registered on this engine.
func (e *Engine) HasTag(name string) bool {
	_, ok := e.tags.lookup(name)
	return ok
}

// Tags returns the sorted names of the custom tags registered on this engine.
func (e *Engine) Tags() []string {
	e.tags.mu.RLock()
	defer e.tags.mu.RUnlock()

	names := make([]string, 0, len(e.tags.tags))
	for name := range e.tags.tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func bridgeTag(name string, block bool) error {
	registryMu.Lock()
	defer registryMu.Unlock()

	if existing, ok := bridged[name]; ok {
		if existing != block {
			return fmt.Errorf("pongo: tag %q is already bridged with block=%t", name, existing)
		}
		return nil
	}
	if err := pongo2.RegisterTag(name, tagParser(name, block)); err != nil {
		return fmt.Errorf("pongo: register tag %q: %w", name, err)
	}
	bridged[name] = block
	return nil
}

type tagNode struct {
	name string
	args []pongo2.IEvaluator
	body *pongo2.NodeWrapper
}

func tagParser(name string, block bool) pongo2.TagParser {
	return func(doc *pongo2.Parser, start *pongo2.Token, arguments *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
		node := &tagNode{name: name}

		for arguments.Remaining() > 0 {
			expr, err := arguments.ParseExpression()
			if err != nil {
				return nil, err
			}
			node.args = append(node.args, expr)
			arguments.Match(pongo2.TokenSymbol, ",")
		}

		if block {
			wrapper, endArgs, err := doc.WrapUntilTag("end" + name)
			if err != nil {
				return nil, err
			}
			if endArgs.Remaining() > 0 {
				return nil, endArgs.Error(fmt.Sprintf("'end%s' takes no arguments.", name), nil)
			}
			node.body = wrapper
		}

		return node, nil
	}
}

func (node *tagNode) Execute(ctx *pongo2.ExecutionContext, writer pongo2.TemplateWriter) *pongo2.Error {
	table, _ := ctx.Public[tagTableKey].(*tagTable)
	tag, ok := table.lookup(node.name)
	if !ok {
		return ctx.Error(fmt.Sprintf("tag %q is not registered", node.name), nil)
	}

	args := make([]any, 0, len(node.args))
	for _, expr := range node.args {
		value, err := expr.Evaluate(ctx)
		if err != nil {
			return err
		}
		args = append(args, value.Interface())
	}

	var body string
	if node.body != nil {
		var buf bytes.Buffer
		if err := node.body.Execute(ctx, &buf); err != nil {
			return err
		}
		body = buf.String()
	}

	out, err := tag.Render(template.TagContext{Name: node.name, Args: args, Body: body})
	if err != nil {
		return ctx.OrigError(err, nil)
	}
	if _, err := writer.WriteString(out); err != nil {
		return ctx.OrigError(err, nil)
	}
	return nil
}
