package jq

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	cmdpkg "github.com/kong/ideamixer/internal/cmd"
	cmdcommon "github.com/kong/ideamixer/internal/cmd/common"
	"github.com/kong/ideamixer/internal/config"
	"github.com/kong/ideamixer/internal/iostreams"
)

const (
	FlagName             = "jq"
	ColorThemeFlagName   = "jq-color-theme"
	RawOutputFlagName    = "jq-raw-output"
	RawOutputFlagShort   = "r"
	ColorThemeConfigPath = "jq.color-theme"
	RawOutputConfigPath  = "jq.raw-output"
	DefaultTheme         = "friendly"
)

var queryCache sync.Map

// Settings is the resolved jq behaviour for one command run.
type Settings struct {
	Filter    string
	ColorMode cmdcommon.ColorMode
	Theme     string
	RawOutput bool
}

// HasFilter reports whether a jq expression was given.
func (s Settings) HasFilter() bool {
	return strings.TrimSpace(s.Filter) != ""
}

func AddFlags(flags *pflag.FlagSet) {
	flags.String(FlagName, "",
		"Filter structured output with a jq expression (gojq).")
	flags.String(ColorThemeFlagName, DefaultTheme,
		fmt.Sprintf(`Color theme for jq results on a terminal.
- Config path: [ %s ]
- Examples   : [ friendly, github-dark, dracula ]`, ColorThemeConfigPath))
	flags.BoolP(RawOutputFlagName, RawOutputFlagShort, false,
		fmt.Sprintf(`Print string results without JSON quotes (like jq -r).
- Config path: [ %s ]`, RawOutputConfigPath))
}

func BindFlags(cfg config.Hook, flags *pflag.FlagSet) error {
	for flag, path := range map[string]string{
		ColorThemeFlagName: ColorThemeConfigPath,
		RawOutputFlagName:  RawOutputConfigPath,
	} {
		f := flags.Lookup(flag)
		if f == nil {
			continue
		}
		if err := cfg.BindFlag(path, f); err != nil {
			return err
		}
	}
	return nil
}

// ResolveSettings reads the jq flags of command, preferring bound config values.
// A --jq given with an empty expression means ".".
func ResolveSettings(command *cobra.Command, cfg config.Hook, mode cmdcommon.ColorMode) (Settings, error) {
	settings := Settings{Theme: DefaultTheme, ColorMode: mode}
	flags := command.Flags()
	if flags.Lookup(FlagName) == nil {
		return settings, nil
	}

	filter, err := flags.GetString(FlagName)
	if err != nil {
		return Settings{}, err
	}
	filter = strings.TrimSpace(filter)
	if flags.Changed(FlagName) && filter == "" {
		filter = "."
	}
	settings.Filter = filter

	if cfg == nil {
		if settings.RawOutput, err = flags.GetBool(RawOutputFlagName); err != nil {
			return Settings{}, err
		}
		return settings, nil
	}
	if t := strings.TrimSpace(cfg.GetString(ColorThemeConfigPath)); t != "" {
		settings.Theme = t
	}
	settings.RawOutput = cfg.GetBool(RawOutputConfigPath)
	return settings, nil
}

// Validate rejects flag combinations jq cannot serve.
func Validate(outType cmdcommon.OutputFormat, s Settings) error {
	switch {
	case s.RawOutput && !s.HasFilter():
		return &cmdpkg.ConfigurationError{Err: fmt.Errorf("--%s requires --%s", RawOutputFlagName, FlagName)}
	case s.RawOutput && outType != cmdcommon.JSON:
		return &cmdpkg.ConfigurationError{
			Err: fmt.Errorf("--%s is only supported with --output json", RawOutputFlagName),
		}
	case s.HasFilter() && outType != cmdcommon.JSON && outType != cmdcommon.YAML:
		return &cmdpkg.ConfigurationError{
			Err: fmt.Errorf("--%s is only supported with --output json or --output yaml", FlagName),
		}
	}
	return nil
}

// Apply filters raw. When handled is true the result has already been written to
// out; otherwise payload should be printed by the caller's formatter.
func Apply(raw any, outType cmdcommon.OutputFormat, s Settings, out io.Writer) (payload any, handled bool, err error) {
	if !s.HasFilter() {
		return raw, false, nil
	}
	if err := Validate(outType, s); err != nil {
		return nil, false, err
	}

	body, err := json.Marshal(raw)
	if err != nil {
		return nil, false, fmt.Errorf("encode output for jq: %w", err)
	}
	results, err := evaluate(body, s.Filter)
	if err != nil {
		return nil, false, err
	}

	if s.RawOutput {
		return nil, true, writeRaw(results, out)
	}

	filtered, err := encode(results)
	if err != nil {
		return nil, false, err
	}
	if outType == cmdcommon.JSON && ShouldUseColor(s.ColorMode, out) {
		_, err := fmt.Fprintln(out, strings.TrimRight(colorize(filtered, s.Theme), "\n"))
		return nil, true, err
	}

	var decoded any
	if err := json.Unmarshal(filtered, &decoded); err != nil {
		return nil, false, fmt.Errorf("decode jq result: %w", err)
	}
	return decoded, false, nil
}

func evaluate(body []byte, filter string) ([]any, error) {
	var input any
	if err := json.Unmarshal(body, &input); err != nil {
		return nil, fmt.Errorf("output is not valid JSON: %w", err)
	}
	code, err := compile(filter)
	if err != nil {
		return nil, err
	}

	var results []any
	iter := code.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("jq filter failed: %w", err)
		}
		results = append(results, v)
	}
	return results, nil
}

func compile(filter string) (*gojq.Code, error) {
	if cached, ok := queryCache.Load(filter); ok {
		return cached.(*gojq.Code), nil
	}
	parsed, err := gojq.Parse(filter)
	if err != nil {
		return nil, &cmdpkg.ConfigurationError{Err: fmt.Errorf("invalid jq expression: %w", err)}
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, &cmdpkg.ConfigurationError{Err: fmt.Errorf("failed to compile jq expression: %w", err)}
	}
	queryCache.Store(filter, code)
	return code, nil
}

// encode folds zero results to null and several into an array
func encode(results []any) ([]byte, error) {
	var v any
	switch len(results) {
	case 0:
		v = nil
	case 1:
		v = results[0]
	default:
		v = results
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode jq result: %w", err)
	}
	return b, nil
}

func writeRaw(results []any, out io.Writer) error {
	for _, r := range results {
		line, ok := r.(string)
		if !ok {
			b, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("encode jq result: %w", err)
			}
			line = string(b)
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

// ShouldUseColor resolves auto against NO_COLOR and whether out is a terminal.
func ShouldUseColor(mode cmdcommon.ColorMode, out io.Writer) bool {
	switch mode {
	case cmdcommon.ColorModeAlways:
		return true
	case cmdcommon.ColorModeNever:
		return false
	default:
		if _, disabled := os.LookupEnv("NO_COLOR"); disabled {
			return false
		}
		return iostreams.IsTerminal(out)
	}
}

func colorize(raw []byte, theme string) string {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return string(raw)
	}
	formatted := pretty.String()

	lexer := lexers.Get("json")
	formatter := formatters.Get("terminal256")
	if lexer == nil || formatter == nil {
		return formatted
	}
	style := styles.Get(theme)
	if style == nil {
		style = styles.Fallback
	}
	iterator, err := lexer.Tokenise(nil, formatted)
	if err != nil {
		return formatted
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return formatted
	}
	return buf.String()
}
