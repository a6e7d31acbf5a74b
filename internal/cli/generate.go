package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/curaline/swagger2ts/internal/emitter/tsemitter"
	"github.com/curaline/swagger2ts/internal/grouping"
	genspec "github.com/curaline/swagger2ts/internal/spec"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// ErrGenerateFailed marks a run where at least one source failed; main maps
// it to a non-zero exit without printing a second error message.
var ErrGenerateFailed = errors.New("generate: one or more sources failed")

// GenerateConfig captures all inputs that influence the generate command
// after merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Inputs          []string
	Out             string
	ServiceName     string
	TransportImport string
	GroupRules      []string // "match=folder" entries, ordered
	ConfigPath      string
	Lint            bool
	DryRun          bool
	Force           bool
	Verbose         bool
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{Lint: true}
}

// SourceResult captures the outcome of one source in a multi-source run.
// One source's failure never prevents others from completing.
type SourceResult struct {
	Input       string
	ServiceName string
	Success     bool
	Skipped     bool
	Errors      []string
	Warnings    []string
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate TypeScript client modules from Swagger/OpenAPI documents",
		Long: "Generate typed TypeScript client modules from one or more Swagger/OpenAPI documents. " +
			"Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  swagger2ts generate --input spec.yaml --out ./src/api
  swagger2ts generate --input a.yaml --input b.yaml --out ./src/api --force
  swagger2ts --config swagger2ts.yaml generate --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringSlice("input", nil, "Path or URL to a Swagger/OpenAPI document (repeatable)")
	flags.String("out", "", "Output directory for the generated client tree")
	flags.String("service-name", "", "Override the derived service name")
	flags.String("transport-import", "", "Import path of the HTTP transport module used by generated clients")
	flags.StringSlice("group-rule", nil, "Extra grouping rule as match=folder (repeatable)")
	flags.Bool("lint", true, "Report advisory validation warnings for each document")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite existing output when set")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	if flags.Changed("input") {
		value, err := flags.GetStringSlice("input")
		if err != nil {
			return err
		}
		cfg.Inputs = sanitizeList(value)
	}
	if flags.Changed("out") {
		value, err := flags.GetString("out")
		if err != nil {
			return err
		}
		cfg.Out = strings.TrimSpace(value)
	}
	if flags.Changed("service-name") {
		value, err := flags.GetString("service-name")
		if err != nil {
			return err
		}
		cfg.ServiceName = strings.TrimSpace(value)
	}
	if flags.Changed("transport-import") {
		value, err := flags.GetString("transport-import")
		if err != nil {
			return err
		}
		cfg.TransportImport = strings.TrimSpace(value)
	}
	if flags.Changed("group-rule") {
		value, err := flags.GetStringSlice("group-rule")
		if err != nil {
			return err
		}
		cfg.GroupRules = sanitizeList(value)
	}
	if flags.Changed("lint") {
		value, err := flags.GetBool("lint")
		if err != nil {
			return err
		}
		cfg.Lint = value
	}
	if flags.Changed("dry-run") {
		value, err := flags.GetBool("dry-run")
		if err != nil {
			return err
		}
		cfg.DryRun = value
	}
	if flags.Changed("force") {
		value, err := flags.GetBool("force")
		if err != nil {
			return err
		}
		cfg.Force = value
	}
	if flags.Changed("verbose") {
		value, err := flags.GetBool("verbose")
		if err != nil {
			return err
		}
		cfg.Verbose = value
	}

	return nil
}

func (c *GenerateConfig) normalize() {
	c.Inputs = sanitizeList(c.Inputs)
	c.Out = strings.TrimSpace(c.Out)
	c.ServiceName = strings.TrimSpace(c.ServiceName)
	c.TransportImport = strings.TrimSpace(c.TransportImport)
	c.GroupRules = sanitizeList(c.GroupRules)
}

func (c *GenerateConfig) validate() error {
	if len(c.Inputs) == 0 {
		return newUsageError("generate: --input is required (set via flag or config file)")
	}
	if c.Out == "" && !c.DryRun {
		return newUsageError("generate: --out is required unless --dry-run is set")
	}
	if _, err := parseGroupRules(c.GroupRules); err != nil {
		return newUsageError(fmt.Sprintf("generate: %v", err))
	}
	return nil
}

// parseGroupRules turns "match=folder" entries into extra grouping rules,
// appended after the stock table so defaults keep precedence.
func parseGroupRules(entries []string) ([]grouping.Rule, error) {
	rules := grouping.DefaultRules()
	for _, e := range entries {
		match, folder, ok := strings.Cut(e, "=")
		match = strings.TrimSpace(match)
		folder = strings.TrimSpace(folder)
		if !ok || match == "" || folder == "" {
			return nil, fmt.Errorf("invalid group rule %q (expected match=folder)", e)
		}
		rules = append(rules, grouping.Rule{Match: match, Folder: folder})
	}
	return rules, nil
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	rules, err := parseGroupRules(cfg.GroupRules)
	if err != nil {
		return newUsageError(fmt.Sprintf("generate: %v", err))
	}

	// Each source is processed independently; a failure is captured in its
	// result and never aborts the remaining sources.
	results := make([]SourceResult, 0, len(cfg.Inputs))
	seen := make(map[string]bool, len(cfg.Inputs))
	for _, input := range cfg.Inputs {
		if seen[input] {
			results = append(results, SourceResult{Input: input, Skipped: true})
			continue
		}
		seen[input] = true
		results = append(results, processSource(ctx, cfg, input, rules))
	}

	for _, res := range results {
		printSourceResult(res, cfg.Verbose)
	}
	total, succeeded, failed, skipped := summarize(results)
	fmt.Fprintf(os.Stdout, "Sources: %d total, %d succeeded, %d failed, %d skipped\n", total, succeeded, failed, skipped)

	if failed > 0 {
		return ErrGenerateFailed
	}
	return nil
}

func processSource(ctx context.Context, cfg *GenerateConfig, input string, rules []grouping.Rule) SourceResult {
	res := SourceResult{Input: input}

	raw, location, err := genspec.Fetch(ctx, input)
	if err != nil {
		res.Errors = append(res.Errors, formatSpecError(err))
		return res
	}
	doc, err := genspec.Parse(raw)
	if err != nil {
		var se *genspec.SpecError
		if errors.As(err, &se) && se.Location == "" {
			se.Location = location
		}
		res.Errors = append(res.Errors, formatSpecError(err))
		return res
	}

	if cfg.Lint {
		res.Warnings = genspec.Lint(ctx, raw, doc.Version)
	}

	emitRes, err := tsemitter.Emit(ctx, doc, tsemitter.Options{
		OutDir:          cfg.Out,
		ServiceName:     cfg.ServiceName,
		TransportImport: cfg.TransportImport,
		Rules:           rules,
		Force:           cfg.Force,
		DryRun:          cfg.DryRun,
	})
	if err != nil {
		res.Errors = append(res.Errors, wrapOutputError(err, cfg.Out))
		return res
	}

	res.ServiceName = emitRes.ServiceName
	res.Success = true
	if cfg.DryRun {
		fmt.Fprintf(os.Stdout, "Planned layout for %s:\n%s", input, emitRes.Preview)
	} else if cfg.Verbose {
		for _, p := range emitRes.Planned {
			fmt.Fprintf(os.Stdout, "     wrote %s (%d bytes)\n", p.RelPath, p.Size)
		}
	}
	return res
}

func printSourceResult(res SourceResult, verbose bool) {
	switch {
	case res.Skipped:
		fmt.Fprintf(os.Stdout, "SKIP %s (duplicate input)\n", res.Input)
	case res.Success:
		fmt.Fprintf(os.Stdout, "OK   %s (%s)\n", res.Input, res.ServiceName)
	default:
		fmt.Fprintf(os.Stdout, "FAIL %s\n", res.Input)
		for _, e := range res.Errors {
			fmt.Fprintf(os.Stdout, "     %s\n", e)
		}
	}
	if verbose {
		for _, w := range res.Warnings {
			fmt.Fprintf(os.Stdout, "     warn: %s\n", w)
		}
	}
}

func summarize(results []SourceResult) (total, succeeded, failed, skipped int) {
	total = len(results)
	for _, r := range results {
		switch {
		case r.Skipped:
			skipped++
		case r.Success:
			succeeded++
		default:
			failed++
		}
	}
	return total, succeeded, failed, skipped
}

func formatSpecError(err error) string {
	var se *genspec.SpecError
	if errors.As(err, &se) {
		msg := se.Message
		if se.Location != "" {
			msg = fmt.Sprintf("%s (location: %s)", msg, se.Location)
		}
		if se.JSONPointer != "" {
			msg = fmt.Sprintf("%s (pointer: %s)", msg, se.JSONPointer)
		}
		return msg
	}
	return err.Error()
}

func wrapOutputError(err error, outDir string) string {
	// Provide clearer guidance for common FS failures.
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") || strings.Contains(lower, "output directory") {
		return fmt.Sprintf("output error for %s: %s\nHint: choose a different --out or use --force when appropriate.", outDir, msg)
	}
	return msg
}

func sanitizeList(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	// Duplicates are kept so the run can report them skipped; only blank
	// entries are dropped here.
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	for key, value := range raw {
		normalized := normalizeKey(key)
		switch normalized {
		case "input", "inputs":
			list, err := valueAsStringSlice(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Inputs = sanitizeList(list)
		case "out":
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Out = str
		case "servicename":
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.ServiceName = str
		case "transportimport":
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.TransportImport = str
		case "grouprules":
			list, err := valueAsStringSlice(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.GroupRules = sanitizeList(list)
		case "lint":
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Lint = val
		case "dryrun":
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.DryRun = val
		case "force":
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Force = val
		case "verbose":
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Verbose = val
		default:
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
	}

	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n":
			return false, nil
		case "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
