// Package branding provides compile-time identity values for the CLI.
//
// Forkers edit branding.yaml, then rebuild. Go's //go:embed bakes it into
// the binary.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName      string `yaml:"cli_name"`
	AppName      string `yaml:"app_name"`
	DisplayName  string `yaml:"display_name"`
	Description  string `yaml:"description"`
	HomeDir      string `yaml:"home_dir"`
	EnvPrefix    string `yaml:"env_prefix"`
	HubEnv       string `yaml:"hub_env"`
	InitEnv      string `yaml:"init_env"`
	DefaultHub   string `yaml:"default_hub"`
	SupportEmail string `yaml:"support_email"`
	GoModule     string `yaml:"go_module"`
	GitHubRepo   string `yaml:"github_repo"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:      "ml",
			AppName:      "mlhub",
			DisplayName:  "MLHub",
			Description:  "Machine Learning Hub package manager",
			HomeDir:      ".mlhub",
			EnvPrefix:    "MLHUB",
			HubEnv:       "MLHUB",
			InitEnv:      "MLINIT",
			DefaultHub:   "https://mlhub.au/",
			SupportEmail: "support@mlhub.ai",
			GoModule:     "github.com/mlhub-labs/mlhub",
			GitHubRepo:   "mlhubber/mlhub",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "ml").
func CLIName() string { load(); return defaults.CLIName }

// AppName returns the application name used in messages (e.g., "mlhub").
func AppName() string { load(); return defaults.AppName }

// DisplayName returns the human-readable product name (e.g., "MLHub").
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".mlhub").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "MLHUB").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// HubEnv names the environment variable that overrides the hub URL.
func HubEnv() string { load(); return defaults.HubEnv }

// InitEnv names the environment variable that overrides the package root.
func InitEnv() string { load(); return defaults.InitEnv }

// DefaultHub returns the catalog location used when nothing overrides it.
func DefaultHub() string { load(); return defaults.DefaultHub }

// SupportEmail returns the address printed in the usage text.
func SupportEmail() string { load(); return defaults.SupportEmail }

// GoModule returns the Go module path. Not consumed at runtime.
func GoModule() string { load(); return defaults.GoModule }

// GitHubRepo returns the "owner/repo" string of the CLI itself.
func GitHubRepo() string { load(); return defaults.GitHubRepo }

// ScriptEnv names a variable exported to package scripts, e.g.
// ScriptEnv("model_name") → "_MLHUB_MODEL_NAME".
func ScriptEnv(suffix string) string {
	load()
	return "_" + defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
