package spec

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Version tags the two supported document flavors.
type Version string

const (
	VersionSwagger2 Version = "2.0"
	VersionOpenAPI3 Version = "3.x"
)

// PathEntry is one entry of the document's path table, in document order.
type PathEntry struct {
	Path string
	Item *yaml.Node
}

// Document is the parsed input: a discriminated union over Swagger 2.0 and
// OpenAPI 3.x carrying the title, the ordered path table, and the schema
// index. Immutable once built.
type Document struct {
	Version Version
	Title   string
	Paths   []PathEntry
	Index   *SchemaIndex
}

// SchemaIndex maps reference keys to schema bodies. Each definition is
// indexed under both its bare name and its full reference path so lookups
// work whether a $ref was partially or fully qualified.
type SchemaIndex struct {
	entries map[string]*SchemaBody
	names   []string // bare names, in document order
}

func newSchemaIndex() *SchemaIndex {
	return &SchemaIndex{entries: make(map[string]*SchemaBody)}
}

func (ix *SchemaIndex) add(bare, full string, body *SchemaBody) {
	if _, dup := ix.entries[bare]; !dup {
		ix.names = append(ix.names, bare)
	}
	ix.entries[bare] = body
	ix.entries[full] = body
}

// Names returns the bare definition names in document order.
func (ix *SchemaIndex) Names() []string { return ix.names }

// Resolve returns the schema body for a reference key, or nil when the key
// is unknown. Callers decide the fallback; the synthesizers fall back to a
// bare forward-reference type name rather than inlining a body.
func (ix *SchemaIndex) Resolve(ref string) *SchemaBody {
	if ix == nil {
		return nil
	}
	if body, ok := ix.entries[ref]; ok {
		return body
	}
	return ix.entries[RefName(ref)]
}

// Parse decodes a raw Swagger/OpenAPI document, detects its version, and
// builds the schema index. Documents that match neither version marker fail
// with an UnsupportedVersion SpecError.
func Parse(raw []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, &SpecError{Code: ParseError, Message: fmt.Sprintf("parse document: %v", err), Cause: err}
	}
	top := resolveAlias(&root)
	if top != nil && top.Kind == yaml.DocumentNode && len(top.Content) > 0 {
		top = resolveAlias(top.Content[0])
	}
	if top == nil || top.Kind != yaml.MappingNode {
		return nil, &SpecError{Code: ParseError, Message: "parse document: not a mapping"}
	}

	version, err := detectVersion(top)
	if err != nil {
		return nil, err
	}

	doc := &Document{Version: version, Index: newSchemaIndex()}
	if info := mapGet(top, "info"); info != nil {
		doc.Title = strings.TrimSpace(scalarString(mapGet(info, "title")))
	}

	// The definitions container and the ref prefix differ by version; the
	// index normalizes both into one lookup structure.
	switch version {
	case VersionSwagger2:
		mapPairs(mapGet(top, "definitions"), func(name string, value *yaml.Node) {
			if body := parseSchemaNode(value); body != nil {
				doc.Index.add(name, "#/definitions/"+name, body)
			}
		})
	case VersionOpenAPI3:
		if comps := mapGet(top, "components"); comps != nil {
			mapPairs(mapGet(comps, "schemas"), func(name string, value *yaml.Node) {
				if body := parseSchemaNode(value); body != nil {
					doc.Index.add(name, "#/components/schemas/"+name, body)
				}
			})
		}
	}

	mapPairs(mapGet(top, "paths"), func(path string, item *yaml.Node) {
		if strings.HasPrefix(path, "x-") {
			return
		}
		doc.Paths = append(doc.Paths, PathEntry{Path: path, Item: item})
	})

	return doc, nil
}

func detectVersion(top *yaml.Node) (Version, error) {
	if v := strings.TrimSpace(scalarString(mapGet(top, "swagger"))); v != "" {
		if v == "2.0" {
			return VersionSwagger2, nil
		}
		return "", &SpecError{Code: UnsupportedVersion, Message: fmt.Sprintf("unsupported swagger version %q", v)}
	}
	if v := strings.TrimSpace(scalarString(mapGet(top, "openapi"))); v != "" {
		if strings.HasPrefix(v, "3.") {
			return VersionOpenAPI3, nil
		}
		return "", &SpecError{Code: UnsupportedVersion, Message: fmt.Sprintf("unsupported openapi version %q", v)}
	}
	return "", &SpecError{Code: UnsupportedVersion, Message: "missing version marker (expected 'swagger: 2.0' or 'openapi: 3.x')"}
}

// genericTitleWords are dropped from document titles before deriving the
// service name.
var genericTitleWords = map[string]bool{"api": true, "service": true}

// ServiceName derives the service name from the document title: generic
// words stripped, remainder PascalCased, "Service" appended. An explicit
// override wins; an empty title yields "ApiService".
func (d *Document) ServiceName(override string) string {
	if o := strings.TrimSpace(override); o != "" {
		return o
	}
	fields := strings.FieldsFunc(d.Title, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	var b strings.Builder
	for _, f := range fields {
		if genericTitleWords[strings.ToLower(f)] {
			continue
		}
		b.WriteString(strings.ToUpper(f[:1]) + f[1:])
	}
	if b.Len() == 0 {
		return "ApiService"
	}
	return b.String() + "Service"
}
