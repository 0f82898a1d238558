package template

import (
	"fmt"
	"strings"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// node is one parsed template segment.
type node interface {
	render(b *strings.Builder, data map[string]any, element any)
}

type textNode string

func (n textNode) render(b *strings.Builder, _ map[string]any, _ any) {
	b.WriteString(string(n))
}

// varNode substitutes {{key}} from data, or {{.}} from the enclosing block
// element. Unresolved placeholders are written back verbatim so a templating
// mistake degrades the message instead of dropping it.
type varNode string

func (n varNode) render(b *strings.Builder, data map[string]any, element any) {
	key := string(n)
	if key == "." {
		if element != nil {
			b.WriteString(stringify(element))
			return
		}
		b.WriteString(openDelim + key + closeDelim)
		return
	}

	value, ok := data[key]
	if !ok || value == nil {
		b.WriteString(openDelim + key + closeDelim)
		return
	}
	b.WriteString(stringify(value))
}

// blockNode handles {{#name}}...{{/name}}. A list-valued field renders the
// body once per element with {{.}} bound to it; any other present, truthy
// value renders the body once.
type blockNode struct {
	name     string
	children []node
}

func (n *blockNode) render(b *strings.Builder, data map[string]any, element any) {
	value, ok := data[n.name]
	if !ok || !truthy(value) {
		return
	}

	if items, isList := listValue(value); isList {
		for _, item := range items {
			for _, child := range n.children {
				child.render(b, data, item)
			}
		}
		return
	}

	for _, child := range n.children {
		child.render(b, data, element)
	}
}

// Expand renders a template string against data. See Renderer.Render for the
// placeholder and block semantics.
func Expand(tmpl string, data map[string]any) (string, error) {
	nodes, err := parse(tmpl)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(tmpl))
	for _, n := range nodes {
		n.render(&b, data, nil)
	}
	return b.String(), nil
}

func parse(tmpl string) ([]node, error) {
	var root []node
	stack := []*blockNode{}

	appendNode := func(n node) {
		if len(stack) == 0 {
			root = append(root, n)
			return
		}
		top := stack[len(stack)-1]
		top.children = append(top.children, n)
	}

	rest := tmpl
	for {
		open := strings.Index(rest, openDelim)
		if open < 0 {
			if rest != "" {
				appendNode(textNode(rest))
			}
			break
		}
		if open > 0 {
			appendNode(textNode(rest[:open]))
		}

		end := strings.Index(rest[open:], closeDelim)
		if end < 0 {
			// Dangling delimiter: keep it as literal text.
			appendNode(textNode(rest[open:]))
			break
		}

		tag := rest[open+len(openDelim) : open+end]
		rest = rest[open+end+len(closeDelim):]

		switch {
		case strings.HasPrefix(tag, "#"):
			block := &blockNode{name: strings.TrimSpace(tag[1:])}
			appendNode(block)
			stack = append(stack, block)
		case strings.HasPrefix(tag, "/"):
			name := strings.TrimSpace(tag[1:])
			if len(stack) == 0 {
				return nil, fmt.Errorf("unexpected closing tag %q", name)
			}
			top := stack[len(stack)-1]
			if top.name != name {
				return nil, fmt.Errorf("mismatched closing tag %q, expected %q", name, top.name)
			}
			stack = stack[:len(stack)-1]
		default:
			appendNode(varNode(strings.TrimSpace(tag)))
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("unclosed block %q", stack[len(stack)-1].name)
	}
	return root, nil
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprintf("%v", value)
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case []string:
		return len(v) > 0
	case []any:
		return len(v) > 0
	}
	return true
}

func listValue(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		items := make([]any, len(v))
		for i := range v {
			items[i] = v[i]
		}
		return items, true
	}
	return nil, false
}
