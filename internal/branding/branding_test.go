package branding

import "testing"

func TestEmbeddedValues(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"cli", CLIName(), "ml"},
		{"app", AppName(), "mlhub"},
		{"home", HomeDir(), ".mlhub"},
		{"hub env", HubEnv(), "MLHUB"},
		{"init env", InitEnv(), "MLINIT"},
		{"default hub", DefaultHub(), "https://mlhub.au/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestScriptEnv(t *testing.T) {
	if got := ScriptEnv("model_name"); got != "_MLHUB_MODEL_NAME" {
		t.Errorf("ScriptEnv(model_name) = %q, want _MLHUB_MODEL_NAME", got)
	}
}
