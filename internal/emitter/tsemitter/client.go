package tsemitter

import (
	"strings"

	"github.com/curaline/swagger2ts/internal/naming"
	"github.com/curaline/swagger2ts/internal/spec"
)

// ClientModule is one generated client: a class with one member per
// Operation Record, delegating to the injected transport.
type ClientModule struct {
	Name    string
	Body    string
	Imports []string // generated type names referenced by member functions
}

// bodyMethods are the methods that conventionally carry a request body.
// DELETE is deliberately included: the transport's delete call accepts
// body-or-undefined.
var bodyMethods = map[string]bool{"post": true, "put": true, "patch": true, "delete": true}

// clientName concatenates the folder-path segments and appends "Client".
func clientName(folder []string) string {
	return strings.Join(folder, "") + "Client"
}

// paramIdent derives the local identifier for a path parameter. Sanitizing
// after the case conversion keeps digit-led or symbol-bearing names valid.
func paramIdent(p string) string {
	return naming.SanitizeIdentifier(naming.ToCamelCase(p))
}

// interpolatePath rewrites {param} placeholders to template-literal slots
// and returns the TS path expression: a backtick template when parameters
// exist, a plain quoted string otherwise.
func interpolatePath(path string) string {
	if !strings.Contains(path, "{") {
		return `"` + path + `"`
	}
	out := path
	for _, p := range naming.PathParamNames(path) {
		out = strings.Replace(out, "{"+p+"}", "${"+paramIdent(p)+"}", 1)
	}
	return "`" + out + "`"
}

// queryType renders the inline structural type for an operation's query
// parameters. It is deliberately not a Generated Type, to avoid one-off
// type pollution. Declaration names referenced by parameter schemas are
// returned so the caller can import them.
func queryType(params []spec.Parameter) (typ string, allOptional bool, refs []string) {
	allOptional = true
	parts := make([]string, 0, len(params))
	for _, p := range params {
		if p.Required {
			allOptional = false
		}
		marker := "?:"
		if p.Required {
			marker = ":"
		}
		text, paramRefs := RenderBody(p.Schema, nil)
		refs = append(refs, paramRefs...)
		parts = append(parts, naming.PropertyKey(p.Name)+marker+" "+text)
	}
	return "{ " + strings.Join(parts, "; ") + " }", allOptional, refs
}

// SynthesizeClient renders the client module for one group. Member
// signatures follow the fixed parameter order: path parameters in path
// order, then the request-body parameter, then the query object, then the
// trailing options parameter.
func SynthesizeClient(folder []string, records []spec.OperationRecord, opTypes map[string]OpTypes, table *Table) ClientModule {
	name := clientName(folder)
	var b strings.Builder
	imports := make([]string, 0, len(records)*2)
	importSeen := make(map[string]bool)
	addImport := func(typeName string) {
		if typeName != "" && !importSeen[typeName] && table.Get(typeName) != nil {
			importSeen[typeName] = true
			imports = append(imports, typeName)
		}
	}

	b.WriteString("export class " + name + " {\n")
	b.WriteString("  constructor(private readonly http: HttpTransport) {}\n")

	for _, rec := range records {
		ot := opTypes[rec.Key()]
		funcName := naming.SanitizeIdentifier(naming.FuncName(rec.Method, rec.Path))

		var params []string
		for _, p := range naming.PathParamNames(rec.Path) {
			params = append(params, paramIdent(p)+": string")
		}

		hasData := rec.RequestBody != nil && bodyMethods[rec.Method]
		if hasData {
			dataType := ot.Request
			if dataType == "" {
				dataType = "any"
			}
			addImport(ot.Request)
			params = append(params, "data: "+dataType)
		}

		hasQuery := len(rec.QueryParams) > 0
		if hasQuery {
			qt, allOptional, queryRefs := queryType(rec.QueryParams)
			for _, r := range queryRefs {
				addImport(r)
			}
			marker := ": "
			if allOptional {
				marker = "?: "
			}
			params = append(params, "query"+marker+qt)
		}
		params = append(params, "options?: RequestOptions")

		respType := ot.Response
		if respType == "" {
			respType = "any"
		}
		addImport(ot.Response)

		pathExpr := interpolatePath(rec.Path)
		optionsExpr := "options"
		if hasQuery {
			optionsExpr = "{ ...options, query }"
		}

		var call string
		switch rec.Method {
		case "get":
			call = "this.http.get<" + respType + ">(" + pathExpr + ", " + optionsExpr + ")"
		case "delete":
			dataExpr := "undefined"
			if hasData {
				dataExpr = "data"
			}
			call = "this.http.delete<" + respType + ">(" + pathExpr + ", " + dataExpr + ", " + optionsExpr + ")"
		default: // post, put, patch
			dataExpr := "{}"
			if hasData {
				dataExpr = "data"
			}
			call = "this.http." + rec.Method + "<" + respType + ">(" + pathExpr + ", " + dataExpr + ", " + optionsExpr + ")"
		}

		b.WriteString("\n")
		writeMethodDoc(&b, rec)
		b.WriteString("  " + funcName + "(" + strings.Join(params, ", ") + ") {\n")
		b.WriteString("    return " + call + ";\n")
		b.WriteString("  }\n")
	}
	b.WriteString("}\n")

	return ClientModule{Name: name, Body: b.String(), Imports: imports}
}

func writeMethodDoc(b *strings.Builder, rec spec.OperationRecord) {
	var lines []string
	if rec.Summary != "" {
		lines = append(lines, rec.Summary)
	} else if rec.Description != "" {
		lines = append(lines, rec.Description)
	}
	if rec.Deprecated {
		lines = append(lines, "@deprecated")
	}
	switch len(lines) {
	case 0:
		return
	case 1:
		b.WriteString("  /** " + lines[0] + " */\n")
	default:
		b.WriteString("  /**\n")
		for _, l := range lines {
			b.WriteString("   * " + l + "\n")
		}
		b.WriteString("   */\n")
	}
}
