package common

import "fmt"

// Represents an enum of valid values for the format of the output for this CLI execution
type OutputFormat int

type ColorMode int

const (
	JSON OutputFormat = iota
	YAML
	TEXT
	HTML
)

const (
	ColorModeAuto ColorMode = iota
	ColorModeAlways
	ColorModeNever
)

var (
	OutputFormats = []string{"json", "yaml", "text", "html"}
	ColorModes    = []string{"auto", "always", "never"}
	LogLevels     = []string{"trace", "debug", "info", "warn", "error"}
)

const (
	// related to the --output flag
	DefaultOutputFormat = "text"
	OutputFlagName      = "output"
	OutputFlagShort     = "o"
	OutputConfigPath    = OutputFlagName

	// related to the --color flag
	ColorFlagName    = "color"
	ColorConfigPath  = ColorFlagName
	DefaultColorMode = "auto"

	// related to the --theme flag
	ColorThemeFlagName   = "theme"
	ColorThemeConfigPath = ColorThemeFlagName
	DefaultColorTheme    = "mixer-dark"

	// related to the --profile flag
	ProfileFlagName  = "profile"
	ProfileFlagShort = "p"
	DefaultProfile   = "default"

	// related to the --config-file flag
	ConfigFilePathFlagName = "config-file"

	// related to the --log-level flag
	LogLevelFlagName   = "log-level"
	DefaultLogLevel    = "error"
	LogLevelConfigPath = LogLevelFlagName

	// related to the --log-file flag
	LogFileFlagName   = "log-file"
	LogFileConfigPath = LogFileFlagName

	// related to the --credentials-file flag
	CredentialsFileFlagName   = "credentials-file"
	CredentialsFileConfigPath = CredentialsFileFlagName

	// related to the --base-url flag
	BaseURLFlagName   = "base-url"
	BaseURLConfigPath = "gemini." + BaseURLFlagName
	DefaultBaseURL    = "https://generativelanguage.googleapis.com/v1beta/models"

	// related to the --model flag
	ModelFlagName   = "model"
	ModelFlagShort  = "m"
	ModelConfigPath = "gemini." + ModelFlagName
	DefaultModel    = "gemini-1.5-flash"

	// related to the --api-key flag
	APIKeyFlagName   = "api-key"
	APIKeyConfigPath = "gemini." + APIKeyFlagName

	// related to the --prompt-template flag
	PromptTemplateFlagName   = "prompt-template"
	PromptTemplateConfigPath = "prompt.template-file"
)

func (of OutputFormat) String() string {
	return [...]string{"json", "yaml", "text", "html"}[of]
}

func OutputFormatStringToIota(format string) (OutputFormat, error) {
	switch format {
	case "json":
		return JSON, nil
	case "yaml":
		return YAML, nil
	case "text", "":
		return TEXT, nil
	case "html":
		return HTML, nil
	default:
		return TEXT, fmt.Errorf("invalid output format %q, must be one of %v", format, OutputFormats)
	}
}

func (cm ColorMode) String() string {
	switch cm {
	case ColorModeAlways:
		return "always"
	case ColorModeNever:
		return "never"
	case ColorModeAuto:
		return "auto"
	default:
		return "auto"
	}
}

func ColorModeStringToIota(mode string) (ColorMode, error) {
	switch mode {
	case "auto", "":
		return ColorModeAuto, nil
	case "always":
		return ColorModeAlways, nil
	case "never":
		return ColorModeNever, nil
	default:
		return ColorModeAuto, fmt.Errorf("invalid color mode %q, must be one of %v", mode, ColorModes)
	}
}
