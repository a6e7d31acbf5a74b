// Package naming holds the pure string transforms that map raw schema and
// path identifiers to the names used in generated source. Every function is
// stateless and deterministic.
package naming

import (
	"strconv"
	"strings"
)

// versionSegments are path segments dropped before deriving resource names
// and group folders.
var versionSegments = map[string]bool{"api": true, "v1": true, "v2": true, "v3": true}

func isAlnum(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

// splitWords splits on dashes, underscores, and whitespace.
func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '_' || r == ' ' || r == '\t' || r == '\n'
	})
}

func stripNonAlnum(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isAlnum(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ToPascalCase capitalizes the first letter of every separator-delimited
// segment and strips all remaining non-alphanumeric characters.
func ToPascalCase(s string) string {
	var b strings.Builder
	for _, w := range splitWords(s) {
		b.WriteString(strings.ToUpper(w[:1]) + w[1:])
	}
	return stripNonAlnum(b.String())
}

// ToCamelCase is ToPascalCase with the first segment's leading letter
// lowercased.
func ToCamelCase(s string) string {
	words := splitWords(s)
	var b strings.Builder
	for i, w := range words {
		if i == 0 {
			b.WriteString(strings.ToLower(w[:1]) + w[1:])
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]) + w[1:])
	}
	return stripNonAlnum(b.String())
}

// IsPathParam reports whether a path segment is a {param} placeholder.
func IsPathParam(seg string) bool {
	return strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}")
}

// PathSegments splits a path template, dropping empty segments.
func PathSegments(path string) []string {
	var out []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// ResourceSegments drops path-parameter and version segments from a path.
func ResourceSegments(path string) []string {
	var out []string
	for _, seg := range PathSegments(path) {
		if IsPathParam(seg) || versionSegments[strings.ToLower(seg)] {
			continue
		}
		out = append(out, seg)
	}
	return out
}

// ByParamSuffix renders path parameter names as a By-prefixed suffix chain
// in path order: {id}, {planId} -> "ByIdByPlanId".
func ByParamSuffix(params []string) string {
	var b strings.Builder
	for _, p := range params {
		b.WriteString("By")
		b.WriteString(ToPascalCase(p))
	}
	return b.String()
}

// ResourceName extracts a PascalCase resource name from a path template:
// parameters and version segments are stripped, then the last up-to-3
// remaining segments are concatenated. A segment is skipped when the next
// kept segment's PascalCase form already starts with it, so
// /activity/activity-plan-schedule yields ActivityPlanSchedule rather than
// a stuttered name. An all-stripped path resolves to "Root".
func ResourceName(path string) string {
	segs := ResourceSegments(path)
	if len(segs) == 0 {
		return "Root"
	}
	if len(segs) > 3 {
		segs = segs[len(segs)-3:]
	}
	var b strings.Builder
	for i, seg := range segs {
		p := ToPascalCase(seg)
		if i+1 < len(segs) && strings.HasPrefix(ToPascalCase(segs[i+1]), p) {
			continue
		}
		b.WriteString(p)
	}
	if b.Len() == 0 {
		return "Root"
	}
	return b.String()
}

// PathParamNames returns the {param} names of a path template in path order.
func PathParamNames(path string) []string {
	var out []string
	for _, seg := range PathSegments(path) {
		if IsPathParam(seg) {
			out = append(out, seg[1:len(seg)-1])
		}
	}
	return out
}

// FuncName derives the callable member name for an operation:
// <lowercaseMethod><ResourceName><ByParamSuffixes>.
func FuncName(method, path string) string {
	return strings.ToLower(method) + ResourceName(path) + ByParamSuffix(PathParamNames(path))
}

// TypeName derives a request or response type name for an operation. The
// direction suffix is "Request" or "Response".
func TypeName(method, path, direction string) string {
	return FuncName(method, path) + direction
}

// SanitizeIdentifier strips characters outside [A-Za-z0-9_$] and prefixes
// an underscore when the result is empty or starts with a digit.
func SanitizeIdentifier(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isAlnum(r) || r == '_' || r == '$' {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" || out[0] >= '0' && out[0] <= '9' {
		return "_" + out
	}
	return out
}

// PropertyKey renders an object property name: bare when it is a valid
// identifier, otherwise as a quoted string-literal key.
func PropertyKey(name string) string {
	if name == "" {
		return strconv.Quote(name)
	}
	for i, r := range name {
		if isAlnum(r) || r == '_' || r == '$' {
			if i == 0 && r >= '0' && r <= '9' {
				return strconv.Quote(name)
			}
			continue
		}
		return strconv.Quote(name)
	}
	return name
}
