package tsemitter

import (
	"fmt"
	"strings"

	"github.com/curaline/swagger2ts/internal/naming"
	"github.com/curaline/swagger2ts/internal/spec"
)

// GeneratedType is one emitted named type declaration.
type GeneratedType struct {
	Name       string
	Body       string
	Provenance string   // "schema:<name>" or "op:<method path>:<direction>"
	Refs       []string // bare names of referenced declarations
}

// Table is the per-run type deduplication table. A name is reused only when
// the previously stored body is textually identical; otherwise the name is
// suffixed with an increasing integer until a matching body is found or the
// name is free. The table is passed explicitly so concurrent runs over
// distinct documents cannot interfere.
type Table struct {
	order  []string
	byName map[string]*GeneratedType
}

// NewTable returns an empty dedup table.
func NewTable() *Table {
	return &Table{byName: make(map[string]*GeneratedType)}
}

// Add stores a declaration and returns the final (possibly suffixed) name.
// isNew reports whether a new declaration was created.
func (t *Table) Add(name, body, provenance string, refs []string) (final string, isNew bool) {
	candidate := name
	for i := 1; ; i++ {
		existing, ok := t.byName[candidate]
		if !ok {
			gt := &GeneratedType{Name: candidate, Body: body, Provenance: provenance, Refs: refs}
			t.byName[candidate] = gt
			t.order = append(t.order, candidate)
			return candidate, true
		}
		if existing.Body == body {
			return candidate, false
		}
		candidate = fmt.Sprintf("%s%d", name, i)
	}
}

// Get returns a declaration by name, or nil.
func (t *Table) Get(name string) *GeneratedType {
	return t.byName[name]
}

// Types returns all declarations in insertion order.
func (t *Table) Types() []GeneratedType {
	out := make([]GeneratedType, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, *t.byName[name])
	}
	return out
}

// renderer turns schema bodies into TypeScript type-body text, collecting
// the referenced declaration names as it goes.
type renderer struct {
	index *spec.SchemaIndex
	refs  []string
	seen  map[string]bool
}

func newRenderer(index *spec.SchemaIndex) *renderer {
	return &renderer{index: index, seen: make(map[string]bool)}
}

func (r *renderer) addRef(name string) {
	if !r.seen[name] {
		r.seen[name] = true
		r.refs = append(r.refs, name)
	}
}

// render applies the schema-to-type-body rules recursively. A reference
// always renders as a name, never an inlined body, which keeps indirect
// cycles harmless; an unresolved reference still renders the bare name as a
// forward reference.
func (r *renderer) render(s *spec.SchemaBody) string {
	if s == nil {
		return "any"
	}
	out := r.renderVariant(s)
	if s.Nullable {
		out = out + " | null"
	}
	return out
}

func (r *renderer) renderVariant(s *spec.SchemaBody) string {
	switch s.Kind {
	case spec.KindRef:
		name := naming.SanitizeIdentifier(spec.RefName(s.Ref))
		r.addRef(name)
		return name
	case spec.KindArray:
		elem := r.render(s.Items)
		if strings.Contains(elem, " | ") || strings.Contains(elem, " & ") {
			return "(" + elem + ")[]"
		}
		return elem + "[]"
	case spec.KindComposite:
		if len(s.AllOf) > 0 {
			return r.renderMembers(s.AllOf, " & ")
		}
		if len(s.OneOf) > 0 {
			return r.renderMembers(s.OneOf, " | ")
		}
		return r.renderMembers(s.AnyOf, " | ")
	case spec.KindObject:
		return r.renderObject(s)
	default:
		if len(s.Enum) > 0 {
			return strings.Join(s.Enum, " | ")
		}
		return primitiveTS(s.Type)
	}
}

func (r *renderer) renderMembers(members []*spec.SchemaBody, sep string) string {
	parts := make([]string, 0, len(members))
	for _, m := range members {
		parts = append(parts, r.render(m))
	}
	if len(parts) == 0 {
		return "any"
	}
	return strings.Join(parts, sep)
}

func (r *renderer) renderObject(s *spec.SchemaBody) string {
	if len(s.Properties) == 0 {
		if s.AdditionalProps != nil {
			return "Record<string, " + r.render(s.AdditionalProps) + ">"
		}
		return "Record<string, any>"
	}
	parts := make([]string, 0, len(s.Properties))
	for _, prop := range s.Properties {
		key := naming.PropertyKey(prop.Name)
		marker := "?:"
		if s.Required[prop.Name] {
			marker = ":"
		}
		typ := "any"
		nullable := false
		if prop.Schema != nil {
			nullable = prop.Schema.Nullable
			// Null-union is rendered at the property line, not inside the type.
			inner := *prop.Schema
			inner.Nullable = false
			typ = r.render(&inner)
		}
		line := key + marker + " " + typ
		if nullable {
			line += " | null"
		}
		parts = append(parts, line)
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}

func primitiveTS(t string) string {
	switch t {
	case "string":
		return "string"
	case "integer", "number":
		return "number"
	case "boolean":
		return "boolean"
	case "null":
		return "null"
	default:
		return "any"
	}
}

// RenderBody converts one schema body to TypeScript text and returns the
// referenced declaration names.
func RenderBody(s *spec.SchemaBody, index *spec.SchemaIndex) (string, []string) {
	r := newRenderer(index)
	return r.render(s), r.refs
}

// OpTypes holds the generated type names for one operation. Request is
// empty when the operation has no request body.
type OpTypes struct {
	Request  string
	Response string
}

// successStatuses is the first-match preference order for response bodies.
var successStatuses = []string{"200", "201", "202", "204"}

// SynthesizeSchemas emits one declaration per top-level named schema in the
// index, skipping pass-through reference aliases, and returns the names
// added in document order.
func SynthesizeSchemas(index *spec.SchemaIndex, table *Table) []string {
	var names []string
	for _, name := range index.Names() {
		body := index.Resolve(name)
		if body == nil || body.Kind == spec.KindRef {
			continue
		}
		text, refs := RenderBody(body, index)
		final, isNew := table.Add(naming.SanitizeIdentifier(name), text, "schema:"+name, refs)
		if isNew {
			names = append(names, final)
		}
	}
	return names
}

// SynthesizeOperation emits the request and response types for one record
// and returns their final names. The response type selects the first
// present success status among 200, 201, 202, 204; when none is present or
// the resolved body carries no fields, the body is the placeholder "any".
func SynthesizeOperation(rec spec.OperationRecord, index *spec.SchemaIndex, table *Table) (OpTypes, []string) {
	var out OpTypes
	var added []string

	if rec.RequestBody != nil {
		text, refs := RenderBody(rec.RequestBody, index)
		name := naming.TypeName(rec.Method, rec.Path, "Request")
		final, isNew := table.Add(name, text, "op:"+rec.Key()+":request", refs)
		out.Request = final
		if isNew {
			added = append(added, final)
		}
	}

	respBody, refs := renderResponseBody(rec, index)
	name := naming.TypeName(rec.Method, rec.Path, "Response")
	final, isNew := table.Add(name, respBody, "op:"+rec.Key()+":response", refs)
	out.Response = final
	if isNew {
		added = append(added, final)
	}
	return out, added
}

func renderResponseBody(rec spec.OperationRecord, index *spec.SchemaIndex) (string, []string) {
	for _, status := range successStatuses {
		for _, resp := range rec.Responses {
			if resp.Status != status {
				continue
			}
			schema := resp.Schema
			if schema == nil {
				return "any", nil
			}
			if schema.Kind == spec.KindRef {
				// A pass-through to an empty object carries no fields.
				if resolved := index.Resolve(schema.Ref); resolved != nil && resolved.IsEmptyObject() {
					return "any", nil
				}
				return RenderBody(schema, index)
			}
			if schema.IsEmptyObject() {
				return "any", nil
			}
			return RenderBody(schema, index)
		}
	}
	return "any", nil
}
