// Package xmltree decodes XML into a loosely typed tree where an element that
// occurs once is stored as a bare value and an element that repeats is
// stored as a sequence.
//
// Leaf elements without attributes become strings. Elements with attributes
// or children become Node maps; attributes are stored under their local
// name and character data under TextKey.
package xmltree

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// TextKey is the key holding an element's character data inside a Node.
const TextKey = "#text"

// ErrEmptyDocument is returned when the input holds no root element.
var ErrEmptyDocument = errors.New("empty XML document")

// Node is an element with attributes or children.
type Node = map[string]any

type frame struct {
	name     string
	node     Node
	text     strings.Builder
	hasChild bool
}

// Parse decodes an XML document. The returned Node maps the root element
// name to its value.
func Parse(r io.Reader) (Node, error) {
	dec := xml.NewDecoder(r)
	root := Node{}
	var stack []*frame
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode XML: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			f := &frame{name: t.Name.Local, node: Node{}}
			for _, attr := range t.Attr {
				if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" {
					continue
				}
				f.node[attr.Name.Local] = attr.Value
			}
			if len(stack) > 0 {
				stack[len(stack)-1].hasChild = true
			}
			stack = append(stack, f)
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unbalanced end element %q", t.Name.Local)
			}
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			value := f.value()
			if len(stack) == 0 {
				addChild(root, f.name, value)
			} else {
				addChild(stack[len(stack)-1].node, f.name, value)
			}
		}
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("unexpected end of document inside %q", stack[len(stack)-1].name)
	}
	if len(root) == 0 {
		return nil, ErrEmptyDocument
	}
	return root, nil
}

func (f *frame) value() any {
	text := strings.TrimSpace(f.text.String())
	if len(f.node) == 0 && !f.hasChild {
		return text
	}
	if text != "" {
		f.node[TextKey] = text
	}
	return f.node
}

func addChild(parent Node, name string, value any) {
	existing, ok := parent[name]
	if !ok {
		parent[name] = value
		return
	}
	if seq, ok := existing.([]any); ok {
		parent[name] = append(seq, value)
		return
	}
	parent[name] = []any{existing, value}
}

// List normalizes a field into a sequence: nil becomes an empty sequence, a
// sequence is returned as is and any other value is wrapped.
func List(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	default:
		return []any{t}
	}
}

// Field returns a named child of a Node, or nil when v is not a Node.
func Field(v any, name string) any {
	n, ok := v.(Node)
	if !ok {
		return nil
	}
	return n[name]
}

// Text returns the character data of a value: a bare scalar is returned
// directly and a Node yields its TextKey entry.
func Text(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case Node:
		return Text(t[TextKey])
	default:
		return "", false
	}
}

// Float parses the text of v as a float64.
func Float(v any) (float64, bool) {
	s, ok := Text(v)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Int parses the text of v as an int.
func Int(v any) (int, bool) {
	s, ok := Text(v)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
