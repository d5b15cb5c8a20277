package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kong/ideamixer/internal/cmd/common"
	"github.com/kong/ideamixer/internal/meta"
	"github.com/kong/ideamixer/internal/util/viper"
	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var defaultConfigFileName = "config.yaml"

// Returns the expanded default config path depending on what
// environment variables are set. If XDG_CONFIG_HOME is set,
// the default is $XDG_CONFIG_HOME/ideamixer,
// otherwise the default is os.UserHomeDir()/.config/ideamixer.
func GetDefaultConfigPath() (string, error) {
	val, set := os.LookupEnv("XDG_CONFIG_HOME")
	if !set || val == "" {
		var err error
		val, err = os.UserHomeDir()
		if err != nil {
			return "", err
		}
		val = filepath.Join(val, ".config")
	}
	val = filepath.Join(val, meta.CLIName)
	return os.ExpandEnv(val), nil
}

func GetDefaultConfigFilePath() (string, error) {
	path, err := GetDefaultConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(path, defaultConfigFileName), nil
}

// GetConfig returns the configuration for this instance of the CLI
func GetConfig(path string, profile string, defaultConfigFilePath string) (*ProfiledConfig, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); err == nil {
		// a file the user points at is loaded strictly
		vip, err := viper.NewViperE(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		return BuildProfiledConfig(profile, path, vip), nil
	}

	if path != defaultConfigFilePath {
		return nil, fmt.Errorf("the provided config file path does not exist: %s", path)
	}

	vip, err := viper.InitializeDefaultViper(getDefaultConfig(profile, path), path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize default config at %s: %w", path, err)
	}
	return BuildProfiledConfig(profile, path, vip), nil
}

// Empty type to represent the _type_ Config. Genesis is to support a key in a Context
type Key struct{}

// ConfigKey is a global instance of the Key type
var ConfigKey = Key{}

// Hook is the restricted view of the configuration handed to commands
type Hook interface {
	// Save writes the configuration to the file system
	Save() error
	GetString(key string) string
	GetBool(key string) bool
	GetInt(key string) int
	// GetIntOrElse returns an integer value from the configuration or a default
	GetIntOrElse(key string, orElse int) int
	GetStringSlice(key string) []string
	SetString(key string, value string)
	Set(k string, v any)
	Get(key string) any
	// IsSet reports whether key has a value from any source
	IsSet(key string) bool
	// BindFlag takes a specific configuration path and
	// binds it to a specific flag
	BindFlag(configPath string, f *pflag.Flag) error
	// The profile for this configuration
	GetProfile() string
	// The file path used to load this configuration
	GetPath() string
	// GetDir is the directory holding the configuration file
	GetDir() string
}

// ProfiledConfig is a Viper but with an associated profile ProfileName
//
//	allows for extraction of the profile specific sub-configuration
//	and implements the Hook interface for more restricted interactions
//	with the configuration system
type ProfiledConfig struct {
	*v.Viper
	subViper    *v.Viper
	ProfileName string
	Path        string
}

func (p *ProfiledConfig) GetProfile() string {
	return p.ProfileName
}

func (p *ProfiledConfig) Save() error {
	return p.WriteConfig()
}

func (p *ProfiledConfig) GetString(key string) string {
	return p.subViper.GetString(key)
}

func (p *ProfiledConfig) GetBool(key string) bool {
	return p.subViper.GetBool(key)
}

func (p *ProfiledConfig) GetInt(key string) int {
	return p.subViper.GetInt(key)
}

func (p *ProfiledConfig) GetIntOrElse(key string, orElse int) int {
	if p.subViper.IsSet(key) {
		return p.subViper.GetInt(key)
	}
	return orElse
}

func (p *ProfiledConfig) GetStringSlice(key string) []string {
	return p.subViper.GetStringSlice(key)
}

func (p *ProfiledConfig) Get(key string) any {
	return p.subViper.Get(key)
}

func (p *ProfiledConfig) IsSet(key string) bool {
	return p.subViper.IsSet(key)
}

func (p *ProfiledConfig) BindFlag(configPath string, f *pflag.Flag) error {
	if f == nil {
		return fmt.Errorf("no flag to bind for %s", configPath)
	}
	return p.subViper.BindPFlag(configPath, f)
}

func (p *ProfiledConfig) SetString(k string, v string) {
	p.subViper.Set(k, v)
}

func (p *ProfiledConfig) Set(k string, v any) {
	p.subViper.Set(k, v)
}

func (p *ProfiledConfig) GetPath() string {
	return p.Path
}

func (p *ProfiledConfig) GetDir() string {
	return filepath.Dir(p.Path)
}

func BuildProfiledConfig(profile string, path string, mainv *v.Viper) *ProfiledConfig {
	subv := mainv.Sub(profile)
	if subv == nil {
		// no section for this profile, env overrides still apply
		subv = v.New()
		envPrefix := viper.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(profile, "-", "_"))
		viper.ConfigureEnvVars(subv, envPrefix)
	}
	applyDefaults(subv, profile, path)

	return &ProfiledConfig{
		Viper:       mainv,
		ProfileName: profile,
		subViper:    subv,
		Path:        path,
	}
}

// applyDefaults fills values a hand written config file may leave out
func applyDefaults(subv *v.Viper, profile, path string) {
	for k, val := range profileDefaults(profile, path) {
		subv.SetDefault(k, val)
	}
}

func profileDefaults(profileName, configFilePath string) map[string]any {
	configDir := filepath.Dir(configFilePath)
	return map[string]any{
		common.OutputConfigPath:          common.DefaultOutputFormat,
		common.ColorConfigPath:           common.DefaultColorMode,
		common.ColorThemeConfigPath:      common.DefaultColorTheme,
		common.LogLevelConfigPath:        common.DefaultLogLevel,
		common.LogFileConfigPath:         filepath.Join(configDir, "logs", meta.CLIName+".log"),
		common.CredentialsFileConfigPath: filepath.Join(configDir, profileName, "credentials.json"),
		common.BaseURLConfigPath:         common.DefaultBaseURL,
		common.ModelConfigPath:           common.DefaultModel,
	}
}

func getDefaultConfig(profileName, configFilePath string) map[string]any {
	defaults := profileDefaults(profileName, configFilePath)
	return map[string]any{
		profileName: map[string]any{
			common.OutputConfigPath:     defaults[common.OutputConfigPath],
			common.LogFileConfigPath:    defaults[common.LogFileConfigPath],
			common.ColorThemeConfigPath: defaults[common.ColorThemeConfigPath],
			"gemini": map[string]any{
				"base-url": common.DefaultBaseURL,
				"model":    common.DefaultModel,
			},
		},
	}
}
