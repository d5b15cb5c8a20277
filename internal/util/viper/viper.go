package viper

import (
	"os"
	"strings"

	"github.com/kong/ideamixer/internal/meta"
	"github.com/kong/ideamixer/internal/util"
	v "github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable override
var EnvPrefix = strings.ToUpper(meta.CLIName)

// InitializeDefaultViper loads the config at path. When the file is missing or empty it is
// created with defaultValues.
func InitializeDefaultViper(defaultValues map[string]any, path string) (*v.Viper, error) {
	if err := util.InitDir(path, 0o755); err != nil {
		return nil, err
	}

	rv := NewViper(path)
	if len(rv.AllSettings()) > 0 {
		return rv, nil
	}

	if err := rv.MergeConfigMap(defaultValues); err != nil {
		return nil, err
	}
	if err := rv.WriteConfigAs(os.ExpandEnv(path)); err != nil {
		return nil, err
	}
	return rv, nil
}

// NewViperE strictly loads the config file at path.
func NewViperE(path string) (*v.Viper, error) {
	rv := newViper(path)
	if err := rv.ReadInConfig(); err != nil {
		return nil, err
	}
	return rv, nil
}

// NewViper loads the config file at path, ignoring read failures.
func NewViper(path string) *v.Viper {
	rv := newViper(path)
	_ = rv.ReadInConfig()
	return rv
}

// ConfigureEnvVars enables IDEAMIXER_<PROFILE>_<KEY> style overrides on a viper
// that has no backing profile section.
func ConfigureEnvVars(rv *v.Viper, prefix string) {
	rv.SetEnvPrefix(prefix)
	rv.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	rv.AutomaticEnv()
}

func newViper(path string) *v.Viper {
	rv := v.New()
	rv.SetConfigFile(os.ExpandEnv(path))
	rv.SetConfigType("yaml")
	ConfigureEnvVars(rv, EnvPrefix)
	return rv
}
