package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mlhub-labs/mlhub/internal/branding"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"

	// configDirName is the dot-directory under the package root that holds
	// the global config file and the per-model config directories.
	configDirName = ".config"
)

// Setting keys.
const (
	KeyHub        = "hub"
	KeyInitDir    = "init_dir"
	KeyQuiet      = "quiet"
	KeyDebug      = "debug"
	KeyCmd        = "cmd"
	KeyWorkingDir = "working_dir"
)

// flagKeys maps persistent flag names onto setting keys.
var flagKeys = map[string]string{
	"mlhub":       KeyHub,
	"init-dir":    KeyInitDir,
	"quiet":       KeyQuiet,
	"debug":       KeyDebug,
	"cmd":         KeyCmd,
	"working-dir": KeyWorkingDir,
}

// DefaultInitDir returns ~/.mlhub, or ./.mlhub when the home directory
// cannot be resolved.
func DefaultInitDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// InitDir returns the package root.
func InitDir() string {
	if v := viper.GetString(KeyInitDir); v != "" {
		return filepath.Clean(expandHome(v))
	}
	return DefaultInitDir()
}

// Dir returns the path to the config directory (<init>/.config/).
func Dir() string {
	return filepath.Join(InitDir(), configDirName)
}

// FilePath returns the full path to the global config file.
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// Hub returns the catalog location, always ending with a slash.
func Hub() string {
	hub := viper.GetString(KeyHub)
	if hub == "" {
		hub = branding.DefaultHub()
	}
	if !strings.HasSuffix(hub, "/") {
		hub += "/"
	}
	return hub
}

// Quiet reports whether context lines and suggestions are suppressed.
func Quiet() bool { return viper.GetBool(KeyQuiet) }

// Debug reports whether the debug log is mirrored onto stderr.
func Debug() bool { return viper.GetBool(KeyDebug) }

// CmdName returns the command name shown in suggestions.
func CmdName() string {
	if v := viper.GetString(KeyCmd); v != "" {
		return v
	}
	return branding.CLIName()
}

// WorkingDir returns the --working-dir value and whether it was given at all.
// An explicitly empty value clears the saved working directory.
func WorkingDir() (string, bool) {
	if !viper.IsSet(KeyWorkingDir) {
		return "", false
	}
	return viper.GetString(KeyWorkingDir), true
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// BindFlags binds the persistent flags that share a name with a setting.
// Only flags the user actually set take precedence over env and file values.
func BindFlags(flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
// MLHUB and MLINIT are honored without the usual prefix.
func Load() {
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()
	_ = viper.BindEnv(KeyHub, branding.HubEnv())
	_ = viper.BindEnv(KeyInitDir, branding.InitEnv())
	viper.SetDefault(KeyHub, branding.DefaultHub())
	viper.SetDefault(KeyCmd, branding.CLIName())

	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
