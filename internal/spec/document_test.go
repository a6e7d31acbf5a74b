package spec

import (
	"errors"
	"testing"
)

const v2Doc = `
swagger: "2.0"
info:
  title: Care Therapy API
  version: "1.0"
paths:
  /api/v1/items:
    get:
      responses:
        "200":
          description: ok
          schema:
            $ref: "#/definitions/Item"
definitions:
  Item:
    type: object
    properties:
      id:
        type: integer
      label:
        type: string
    required: [id]
  ItemAlias:
    $ref: "#/definitions/Item"
`

const v3Doc = `
openapi: 3.0.3
info:
  title: Care Therapy API
  version: "1.0"
paths:
  /api/v1/items:
    get:
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: "#/components/schemas/Item"
components:
  schemas:
    Item:
      type: object
      properties:
        id:
          type: integer
`

func TestParseDetectsVersions(t *testing.T) {
	t.Parallel()
	doc2, err := Parse([]byte(v2Doc))
	if err != nil {
		t.Fatalf("parse v2: %v", err)
	}
	if doc2.Version != VersionSwagger2 {
		t.Fatalf("expected swagger 2.0, got %v", doc2.Version)
	}
	doc3, err := Parse([]byte(v3Doc))
	if err != nil {
		t.Fatalf("parse v3: %v", err)
	}
	if doc3.Version != VersionOpenAPI3 {
		t.Fatalf("expected openapi 3.x, got %v", doc3.Version)
	}
}

func TestParseUnsupportedVersion(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{
		`{"swagger": "1.2", "paths": {}}`,
		`{"openapi": "4.0.0", "paths": {}}`,
		`{"info": {"title": "no marker"}}`,
	} {
		_, err := Parse([]byte(raw))
		if err == nil {
			t.Fatalf("expected error for %s", raw)
		}
		var se *SpecError
		if !errors.As(err, &se) || se.Code != UnsupportedVersion {
			t.Fatalf("expected UnsupportedVersion, got %v (%T)", err, err)
		}
	}
}

func TestParseMalformed(t *testing.T) {
	t.Parallel()
	_, err := Parse([]byte("swagger: [unclosed"))
	var se *SpecError
	if !errors.As(err, &se) || se.Code != ParseError {
		t.Fatalf("expected ParseError, got %v (%T)", err, err)
	}
}

func TestSchemaIndexResolvesBareAndFullRefs(t *testing.T) {
	t.Parallel()
	doc, err := Parse([]byte(v2Doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	bare := doc.Index.Resolve("Item")
	full := doc.Index.Resolve("#/definitions/Item")
	if bare == nil || full == nil {
		t.Fatalf("expected both lookups to resolve")
	}
	if bare != full {
		t.Fatalf("bare and full lookups resolved to different bodies")
	}
	if doc.Index.Resolve("#/definitions/Missing") != nil {
		t.Fatalf("expected nil for unknown ref")
	}

	names := doc.Index.Names()
	if len(names) != 2 || names[0] != "Item" || names[1] != "ItemAlias" {
		t.Fatalf("unexpected index names: %v", names)
	}
}

func TestSchemaIndexV3Container(t *testing.T) {
	t.Parallel()
	doc, err := Parse([]byte(v3Doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Index.Resolve("#/components/schemas/Item") == nil {
		t.Fatalf("expected full v3 ref to resolve")
	}
	if doc.Index.Resolve("Item") == nil {
		t.Fatalf("expected bare name to resolve")
	}
}

func TestServiceName(t *testing.T) {
	t.Parallel()
	doc, err := Parse([]byte(v2Doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := doc.ServiceName(""); got != "CareTherapyService" {
		t.Fatalf("ServiceName = %q", got)
	}
	if got := doc.ServiceName("Custom"); got != "Custom" {
		t.Fatalf("ServiceName override = %q", got)
	}

	empty := &Document{}
	if got := empty.ServiceName(""); got != "ApiService" {
		t.Fatalf("default ServiceName = %q", got)
	}

	generic := &Document{Title: "API Service"}
	if got := generic.ServiceName(""); got != "ApiService" {
		t.Fatalf("all-generic title ServiceName = %q", got)
	}
}

func TestSchemaBodyParsing(t *testing.T) {
	t.Parallel()
	doc, err := Parse([]byte(v2Doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	item := doc.Index.Resolve("Item")
	if item.Kind != KindObject {
		t.Fatalf("expected object, got %v", item.Kind)
	}
	if len(item.Properties) != 2 || item.Properties[0].Name != "id" || item.Properties[1].Name != "label" {
		t.Fatalf("property order not preserved: %+v", item.Properties)
	}
	if !item.Required["id"] || item.Required["label"] {
		t.Fatalf("required set wrong: %v", item.Required)
	}
	alias := doc.Index.Resolve("ItemAlias")
	if alias.Kind != KindRef || RefName(alias.Ref) != "Item" {
		t.Fatalf("alias not kept as ref: %+v", alias)
	}
}
