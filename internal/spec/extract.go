package spec

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// HTTP methods extracted into Operation Records. Other methods on a path
// item are ignored.
var extractedMethods = []string{"get", "post", "put", "patch", "delete"}

// Parameter is one normalized operation parameter.
type Parameter struct {
	Name     string
	Required bool
	Schema   *SchemaBody
}

// ResponseEntry pairs a status-code string with its response schema, which
// may be nil when the response declares none.
type ResponseEntry struct {
	Status string
	Schema *SchemaBody
}

// OperationRecord is one (path, method) pair with parameters partitioned by
// location and request/response schemas normalized across spec versions.
// Records are created once during extraction and never mutated afterward.
type OperationRecord struct {
	Path         string
	Method       string // lowercase: get|post|put|patch|delete
	ID           string
	Summary      string
	Description  string
	PathParams   []Parameter
	QueryParams  []Parameter
	HeaderParams []Parameter
	RequestBody  *SchemaBody
	Responses    []ResponseEntry
	Deprecated   bool
}

// Key identifies a record within one document.
func (r OperationRecord) Key() string { return r.Method + " " + r.Path }

// Extract walks the document's path table and produces one Operation Record
// per (path, method) pair, in document order.
func Extract(doc *Document) []OperationRecord {
	if doc == nil {
		return nil
	}
	var records []OperationRecord
	for _, entry := range doc.Paths {
		pathParams := collectParams(mapGet(entry.Item, "parameters"))
		mapPairs(entry.Item, func(method string, op *yaml.Node) {
			if !isExtractedMethod(method) || op == nil || op.Kind != yaml.MappingNode {
				return
			}
			records = append(records, extractOperation(doc, entry.Path, method, op, pathParams))
		})
	}
	return records
}

func isExtractedMethod(m string) bool {
	for _, em := range extractedMethods {
		if m == em {
			return true
		}
	}
	return false
}

// rawParam keeps a parameter together with its location before partitioning.
type rawParam struct {
	in    string
	param Parameter
	body  *SchemaBody // set only for Swagger 2.0 in:body parameters
}

// collectParams reads a parameters sequence into ordered raw parameters.
func collectParams(n *yaml.Node) []rawParam {
	var out []rawParam
	for _, item := range seqItems(n) {
		name := strings.TrimSpace(scalarString(mapGet(item, "name")))
		in := strings.TrimSpace(scalarString(mapGet(item, "in")))
		if in == "" {
			continue
		}
		if in == "body" {
			out = append(out, rawParam{in: in, body: parseSchemaNode(mapGet(item, "schema"))})
			continue
		}
		if name == "" {
			continue
		}
		p := Parameter{Name: name, Required: scalarBool(mapGet(item, "required"))}
		if sn := mapGet(item, "schema"); sn != nil {
			p.Schema = parseSchemaNode(sn)
		} else {
			// Swagger 2.0 carries type/format/enum directly on the parameter.
			p.Schema = parseSchemaNode(item)
		}
		out = append(out, rawParam{in: in, param: p})
	}
	return out
}

func extractOperation(doc *Document, path, method string, op *yaml.Node, pathLevel []rawParam) OperationRecord {
	rec := OperationRecord{
		Path:        path,
		Method:      method,
		ID:          strings.TrimSpace(scalarString(mapGet(op, "operationId"))),
		Summary:     strings.TrimSpace(scalarString(mapGet(op, "summary"))),
		Description: strings.TrimSpace(scalarString(mapGet(op, "description"))),
		Deprecated:  scalarBool(mapGet(op, "deprecated")),
	}

	// Merge path-item parameters with operation parameters. Operation-level
	// entries of the same location+name override the path-item ones in
	// place; new entries append.
	merged := make([]rawParam, len(pathLevel))
	copy(merged, pathLevel)
	index := make(map[string]int, len(merged))
	for i, rp := range merged {
		index[rp.in+":"+rp.param.Name] = i
	}
	for _, rp := range collectParams(mapGet(op, "parameters")) {
		key := rp.in + ":" + rp.param.Name
		if i, ok := index[key]; ok {
			merged[i] = rp
			continue
		}
		index[key] = len(merged)
		merged = append(merged, rp)
	}

	for _, rp := range merged {
		switch rp.in {
		case "path":
			rec.PathParams = append(rec.PathParams, rp.param)
		case "query":
			rec.QueryParams = append(rec.QueryParams, rp.param)
		case "header":
			rec.HeaderParams = append(rec.HeaderParams, rp.param)
		case "body":
			// Swagger 2.0 request bodies are synthesized from the body
			// parameter; OpenAPI 3.x never emits this location.
			rec.RequestBody = rp.body
		}
	}

	if doc.Version == VersionOpenAPI3 {
		if rb := mapGet(op, "requestBody"); rb != nil {
			if ref := scalarString(mapGet(rb, "$ref")); ref != "" {
				// Only schema refs resolve through the index. A ref into
				// components/requestBodies names a requestBody object, not a
				// schema, and must not match a same-named schema.
				if strings.Contains(ref, "/schemas/") {
					rec.RequestBody = doc.Index.Resolve(ref)
				}
			} else {
				rec.RequestBody = preferredMediaSchema(mapGet(rb, "content"))
			}
		}
	}

	mapPairs(mapGet(op, "responses"), func(status string, resp *yaml.Node) {
		if strings.HasPrefix(status, "x-") {
			return
		}
		entry := ResponseEntry{Status: status}
		switch doc.Version {
		case VersionSwagger2:
			entry.Schema = parseSchemaNode(mapGet(resp, "schema"))
		case VersionOpenAPI3:
			entry.Schema = preferredMediaSchema(mapGet(resp, "content"))
		}
		rec.Responses = append(rec.Responses, entry)
	})

	return rec
}

// preferredMediaSchema picks the schema of the application/json media type
// when declared, otherwise the first declared media type in insertion order.
func preferredMediaSchema(content *yaml.Node) *SchemaBody {
	if content == nil || content.Kind != yaml.MappingNode {
		return nil
	}
	if mt := mapGet(content, "application/json"); mt != nil {
		return parseSchemaNode(mapGet(mt, "schema"))
	}
	var first *SchemaBody
	picked := false
	mapPairs(content, func(_ string, mt *yaml.Node) {
		if picked {
			return
		}
		picked = true
		first = parseSchemaNode(mapGet(mt, "schema"))
	})
	return first
}
