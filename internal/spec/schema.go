package spec

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind discriminates the SchemaBody variants.
type Kind string

const (
	KindPrimitive Kind = "primitive"
	KindArray     Kind = "array"
	KindObject    Kind = "object"
	KindComposite Kind = "composite"
	KindRef       Kind = "ref"
)

// Property is one ordered object member.
type Property struct {
	Name   string
	Schema *SchemaBody
}

// SchemaBody is the normalized, recursive representation of a schema as it
// appears in either a Swagger 2.0 or an OpenAPI 3.x document. Nullability is
// a flag orthogonal to the variant. Property order follows the order in the
// source document.
type SchemaBody struct {
	Kind Kind

	// Primitive
	Type string   // string|number|integer|boolean|null; empty when unknown
	Enum []string // literal forms, already rendered (strings quoted)

	// Array
	Items *SchemaBody

	// Object
	Properties      []Property
	Required        map[string]bool
	AdditionalProps *SchemaBody // non-nil only when a schema is declared

	// Composite
	AllOf []*SchemaBody
	OneOf []*SchemaBody
	AnyOf []*SchemaBody

	// Ref
	Ref string

	Nullable bool
}

// resolveAlias follows YAML alias nodes to their anchors.
func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// mapGet returns the value node for key, or nil. The node must be a mapping.
func mapGet(n *yaml.Node, key string) *yaml.Node {
	n = resolveAlias(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return resolveAlias(n.Content[i+1])
		}
	}
	return nil
}

// mapPairs calls fn for every key/value pair of a mapping node, in document
// order. It is the single place that guarantees insertion-order iteration.
func mapPairs(n *yaml.Node, fn func(key string, value *yaml.Node)) {
	n = resolveAlias(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		fn(n.Content[i].Value, resolveAlias(n.Content[i+1]))
	}
}

func scalarString(n *yaml.Node) string {
	n = resolveAlias(n)
	if n == nil || n.Kind != yaml.ScalarNode {
		return ""
	}
	return n.Value
}

func scalarBool(n *yaml.Node) bool {
	n = resolveAlias(n)
	return n != nil && n.Kind == yaml.ScalarNode && n.Value == "true"
}

func seqItems(n *yaml.Node) []*yaml.Node {
	n = resolveAlias(n)
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	out := make([]*yaml.Node, 0, len(n.Content))
	for _, c := range n.Content {
		out = append(out, resolveAlias(c))
	}
	return out
}

// enumLiteral renders one enum member to its literal source form. String
// values are quoted; numbers and booleans keep their raw spelling.
func enumLiteral(n *yaml.Node) string {
	if n == nil || n.Kind != yaml.ScalarNode {
		return ""
	}
	if n.Tag == "!!str" || n.Style == yaml.DoubleQuotedStyle || n.Style == yaml.SingleQuotedStyle {
		return strconv.Quote(n.Value)
	}
	return n.Value
}

// parseSchemaNode converts one schema node into a SchemaBody. It accepts
// both bare Swagger 2.0 parameter shapes (type/items at the top level) and
// regular schema objects, since the two share the relevant keys.
func parseSchemaNode(n *yaml.Node) *SchemaBody {
	n = resolveAlias(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}

	if ref := scalarString(mapGet(n, "$ref")); ref != "" {
		return &SchemaBody{Kind: KindRef, Ref: ref}
	}

	body := &SchemaBody{}
	body.Nullable = scalarBool(mapGet(n, "nullable")) || scalarBool(mapGet(n, "x-nullable"))

	// type may be a scalar or, in OpenAPI 3.1, a list possibly containing "null".
	if tn := mapGet(n, "type"); tn != nil {
		switch tn.Kind {
		case yaml.ScalarNode:
			body.Type = tn.Value
		case yaml.SequenceNode:
			for _, item := range seqItems(tn) {
				if item.Value == "null" {
					body.Nullable = true
					continue
				}
				if body.Type == "" {
					body.Type = item.Value
				}
			}
		}
	}

	if en := mapGet(n, "enum"); en != nil {
		for _, item := range seqItems(en) {
			if lit := enumLiteral(item); lit != "" {
				body.Enum = append(body.Enum, lit)
			}
		}
	}

	for _, c := range []struct {
		key string
		dst *[]*SchemaBody
	}{
		{"allOf", &body.AllOf},
		{"oneOf", &body.OneOf},
		{"anyOf", &body.AnyOf},
	} {
		if cn := mapGet(n, c.key); cn != nil {
			for _, item := range seqItems(cn) {
				if member := parseSchemaNode(item); member != nil {
					*c.dst = append(*c.dst, member)
				}
			}
		}
	}
	if len(body.AllOf) > 0 || len(body.OneOf) > 0 || len(body.AnyOf) > 0 {
		body.Kind = KindComposite
		return body
	}

	switch body.Type {
	case "array":
		body.Kind = KindArray
		body.Items = parseSchemaNode(mapGet(n, "items"))
		return body
	case "object", "":
		props := mapGet(n, "properties")
		ap := mapGet(n, "additionalProperties")
		if body.Type == "object" || props != nil || ap != nil {
			body.Kind = KindObject
			mapPairs(props, func(name string, value *yaml.Node) {
				if ps := parseSchemaNode(value); ps != nil {
					body.Properties = append(body.Properties, Property{Name: name, Schema: ps})
				}
			})
			if req := mapGet(n, "required"); req != nil {
				body.Required = make(map[string]bool)
				for _, item := range seqItems(req) {
					if item.Kind == yaml.ScalarNode {
						body.Required[item.Value] = true
					}
				}
			}
			if ap != nil && ap.Kind == yaml.MappingNode {
				body.AdditionalProps = parseSchemaNode(ap)
			}
			return body
		}
		// No type and no object-shaped keys: untyped.
		body.Kind = KindPrimitive
		return body
	default:
		body.Kind = KindPrimitive
		return body
	}
}

// RefName returns the bare definition name of a reference string, i.e. the
// last path segment of "#/definitions/X" or "#/components/schemas/X".
func RefName(ref string) string {
	if idx := strings.LastIndex(ref, "/"); idx >= 0 {
		return ref[idx+1:]
	}
	return ref
}

// IsEmptyObject reports whether a body carries no usable field information:
// an object with no properties, no additional-properties schema, and no
// composite members. Such bodies render identically to a missing schema.
func (s *SchemaBody) IsEmptyObject() bool {
	if s == nil {
		return true
	}
	return s.Kind == KindObject &&
		len(s.Properties) == 0 &&
		s.AdditionalProps == nil
}
