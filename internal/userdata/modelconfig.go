package userdata

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// Per-model setting keys.
const (
	KeyCondaEnvName      = "conda_env_name"
	KeyWorkingDir        = "working_dir"
	KeyPythonPath        = "python_path"
	KeyPipPath           = "pip_path"
	KeySysPythonPkgUsage = "sys_python_pkg_usage"
)

// ModelConfig is the content of <root>/.config/<model>/config.yaml.
type ModelConfig map[string]any

// LoadModelConfig reads the settings of model. A missing file yields an
// empty config.
func (l Layout) LoadModelConfig(model string) (ModelConfig, error) {
	cfg := ModelConfig{}
	data, err := os.ReadFile(l.ModelConfigPath(model))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config of %s: %w", model, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config of %s: %w", model, err)
	}
	if cfg == nil {
		cfg = ModelConfig{}
	}
	return cfg, nil
}

// ModelSetting returns one setting as a string, "" when absent.
func (l Layout) ModelSetting(model, key string) string {
	cfg, err := l.LoadModelConfig(model)
	if err != nil {
		return ""
	}
	v, ok := cfg[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// UpdateModelConfig merges values into the settings of model.
func (l Layout) UpdateModelConfig(model string, values ModelConfig) error {
	cfg, err := l.LoadModelConfig(model)
	if err != nil {
		return err
	}
	for k, v := range values {
		cfg[k] = v
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config of %s: %w", model, err)
	}
	if err := os.MkdirAll(l.ConfigDir(model), DirPermNormal); err != nil {
		return fmt.Errorf("creating config dir of %s: %w", model, err)
	}
	if err := os.WriteFile(l.ModelConfigPath(model), data, FilePermNormal); err != nil {
		return fmt.Errorf("writing config of %s: %w", model, err)
	}
	return nil
}

// SavedWorkingDir returns the working dir recorded for model, "" if unset.
func (l Layout) SavedWorkingDir(model string) string {
	return l.ModelSetting(model, KeyWorkingDir)
}

// SaveWorkingDir records dir as the working dir of model; "" clears it.
func (l Layout) SaveWorkingDir(model, dir string) error {
	return l.UpdateModelConfig(model, ModelConfig{KeyWorkingDir: dir})
}
