// Package tsemitter synthesizes the typed TypeScript client source tree for
// one parsed document: per-group types modules, per-group client modules,
// and the folder layout they live in.
package tsemitter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/curaline/swagger2ts/internal/grouping"
	"github.com/curaline/swagger2ts/internal/spec"
)

// Options controls how the emitter renders and writes a client tree.
type Options struct {
	OutDir          string // required unless DryRun
	ServiceName     string // override; derived from the document title when empty
	TransportImport string // import path of the HTTP transport module
	Rules           []grouping.Rule
	Force           bool // overwrite existing files
	DryRun          bool // don't write, only plan
}

// File is one rendered module. Name carries no extension; the types module
// is always literally named "types".
type File struct {
	Name string
	Body string
}

// GroupFiles pairs a folder path with the files emitted into it.
type GroupFiles struct {
	Folder []string
	Files  []File
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

// Result carries the full output contract: the ordered group tuples, the
// computed service name, a preview tree of the layout, and the planned
// writes.
type Result struct {
	ServiceName string
	Groups      []GroupFiles
	Preview     string
	Planned     []PlannedFile
}

const defaultTransportImport = "./transport"

// Emit runs the synthesis pipeline over one document: extraction, grouping,
// type synthesis, client synthesis, and assembly. The document's schema
// index and the run's type table are scoped to this invocation, so distinct
// documents may be emitted concurrently.
func Emit(ctx context.Context, doc *spec.Document, opts Options) (*Result, error) {
	_ = ctx
	if doc == nil {
		return nil, fmt.Errorf("tsemitter: nil document")
	}
	if strings.TrimSpace(opts.OutDir) == "" && !opts.DryRun {
		return nil, fmt.Errorf("tsemitter: OutDir is required")
	}
	transport := strings.TrimSpace(opts.TransportImport)
	if transport == "" {
		transport = defaultTransportImport
	}
	rules := opts.Rules
	if rules == nil {
		rules = grouping.DefaultRules()
	}

	service := doc.ServiceName(opts.ServiceName)
	records := spec.Extract(doc)
	groups := grouping.Group(records, service, rules)
	table := NewTable()

	rootFolder := []string{service}
	// declaredIn tracks which folder's types module declares each name, so
	// importers can reference identical types without re-emitting them.
	declaredIn := make(map[string][]string)

	// Pass a: named schemas become the root types module.
	schemaNames := SynthesizeSchemas(doc.Index, table)
	for _, n := range schemaNames {
		declaredIn[n] = rootFolder
	}
	rootNames := append([]string(nil), schemaNames...)

	// Pass b and client synthesis, group by group in partition order. A
	// group whose folder collapsed to the root shares the root types module,
	// so its declarations fold into rootNames instead of a second types file.
	type groupOut struct {
		folder    []string
		typeNames []string
		client    ClientModule
		inRoot    bool
	}
	var outs []groupOut
	for _, g := range groups {
		opTypes := make(map[string]OpTypes, len(g.Records))
		var groupTypeNames []string
		for _, rec := range g.Records {
			ot, added := SynthesizeOperation(rec, doc.Index, table)
			opTypes[rec.Key()] = ot
			groupTypeNames = append(groupTypeNames, added...)
		}
		for _, n := range groupTypeNames {
			declaredIn[n] = g.Folder
		}
		client := SynthesizeClient(g.Folder, g.Records, opTypes, table)
		inRoot := strings.Join(g.Folder, "/") == service
		if inRoot {
			rootNames = append(rootNames, groupTypeNames...)
			groupTypeNames = nil
		}
		outs = append(outs, groupOut{folder: g.Folder, typeNames: groupTypeNames, client: client, inRoot: inRoot})
	}

	result := &Result{ServiceName: service}
	result.Groups = append(result.Groups, GroupFiles{
		Folder: rootFolder,
		Files:  []File{{Name: "types", Body: renderTypesModule(table, rootNames, declaredIn, rootFolder)}},
	})
	for _, out := range outs {
		clientBody := renderClientModule(out.client, transport, declaredIn, out.folder)
		files := make([]File, 0, 2)
		if !out.inRoot {
			files = append(files, File{Name: "types", Body: renderTypesModule(table, out.typeNames, declaredIn, out.folder)})
		}
		files = append(files, File{Name: out.client.Name, Body: clientBody})
		result.Groups = append(result.Groups, GroupFiles{Folder: out.folder, Files: files})
	}

	result.Preview = renderPreview(result.Groups)
	result.Planned = planFiles(result.Groups)

	if !opts.DryRun {
		files := make(map[string][]byte, len(result.Planned))
		for _, g := range result.Groups {
			dir := filepath.Join(g.Folder...)
			for _, f := range g.Files {
				files[filepath.Join(dir, f.Name+".ts")] = []byte(f.Body)
			}
		}
		if err := writeFiles(opts.OutDir, service, files, opts.Force); err != nil {
			return nil, err
		}
	}
	return result, nil
}

const header = "// Generated by swagger2ts. DO NOT EDIT.\n"

// relImport computes the module specifier of the types module in folder
// `to`, relative to folder `from`.
func relImport(from, to []string) string {
	common := 0
	for common < len(from) && common < len(to) && from[common] == to[common] {
		common++
	}
	ups := len(from) - common
	parts := append(append([]string{}, to[common:]...), "types")
	if ups == 0 {
		return "./" + strings.Join(parts, "/")
	}
	return strings.Repeat("../", ups) + strings.Join(parts, "/")
}

// importGroups orders referenced names by the module that declares them,
// preserving first-use order of both modules and names. Names declared in
// the current folder's own types module are skipped when skipLocal is set.
func importGroups(names []string, declaredIn map[string][]string, from []string, skipLocal bool) (paths []string, byPath map[string][]string) {
	byPath = make(map[string][]string)
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		folder, ok := declaredIn[name]
		if !ok {
			continue
		}
		if skipLocal && strings.Join(folder, "/") == strings.Join(from, "/") {
			continue
		}
		path := relImport(from, folder)
		if _, ok := byPath[path]; !ok {
			paths = append(paths, path)
		}
		byPath[path] = append(byPath[path], name)
	}
	return paths, byPath
}

// renderTypesModule renders the declarations named in order, importing any
// referenced names that live in another folder's types module.
func renderTypesModule(table *Table, names []string, declaredIn map[string][]string, folder []string) string {
	var refs []string
	var decls strings.Builder
	for _, name := range names {
		gt := table.Get(name)
		if gt == nil {
			continue
		}
		refs = append(refs, gt.Refs...)
		decls.WriteString("export type " + gt.Name + " = " + gt.Body + ";\n")
	}
	paths, byPath := importGroups(refs, declaredIn, folder, true)

	var b strings.Builder
	b.WriteString(header)
	if len(paths) > 0 {
		b.WriteString("\n")
		for _, p := range paths {
			b.WriteString("import { " + strings.Join(byPath[p], ", ") + " } from \"" + p + "\";\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(decls.String())
	return b.String()
}

func renderClientModule(client ClientModule, transport string, declaredIn map[string][]string, folder []string) string {
	paths, byPath := importGroups(client.Imports, declaredIn, folder, false)

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\nimport { HttpTransport, RequestOptions } from \"" + transport + "\";\n")
	for _, p := range paths {
		b.WriteString("import { " + strings.Join(byPath[p], ", ") + " } from \"" + p + "\";\n")
	}
	b.WriteString("\n")
	b.WriteString(client.Body)
	return b.String()
}

// renderPreview builds a human-readable tree of the folder layout.
func renderPreview(groups []GroupFiles) string {
	var b strings.Builder
	printed := false
	for _, g := range groups {
		depth := len(g.Folder) - 1
		if !printed || depth == 0 {
			if !printed {
				b.WriteString(g.Folder[0] + "/\n")
				printed = true
			}
		} else {
			b.WriteString(strings.Repeat("  ", depth) + g.Folder[len(g.Folder)-1] + "/\n")
		}
		for _, f := range g.Files {
			b.WriteString(strings.Repeat("  ", depth+1) + f.Name + ".ts\n")
		}
	}
	return b.String()
}

func planFiles(groups []GroupFiles) []PlannedFile {
	var planned []PlannedFile
	for _, g := range groups {
		dir := strings.Join(g.Folder, "/")
		for _, f := range g.Files {
			planned = append(planned, PlannedFile{
				RelPath: dir + "/" + f.Name + ".ts",
				Size:    len(f.Body),
				Mode:    0o644,
			})
		}
	}
	return planned
}

func writeFiles(outDir, service string, files map[string][]byte, force bool) error {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolve out dir: %w", err)
	}
	// Pre-flight: guard the service's own subtree rather than the shared out
	// directory, so several sources can write siblings under one --out.
	guard := filepath.Join(abs, service)
	if st, err := os.Stat(guard); err == nil && st.IsDir() && !force {
		entries, rerr := os.ReadDir(guard)
		if rerr == nil && len(entries) > 0 {
			return fmt.Errorf("tsemitter: output directory %q is not empty (use --force to overwrite)", guard)
		}
	}
	for rel, content := range files {
		p := filepath.Join(abs, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
		// atomic write via temp file + rename
		tmp := p + ".tmp-" + time.Now().Format("20060102150405")
		if err := os.WriteFile(tmp, content, 0o644); err != nil {
			return fmt.Errorf("write temp %s: %w", rel, err)
		}
		if err := os.Rename(tmp, p); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("rename %s: %w", rel, err)
		}
	}
	return nil
}
