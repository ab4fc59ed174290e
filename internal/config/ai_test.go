package config

import "testing"

func envOf(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func TestDefaultAIProvider(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"nothing set", nil, "openai"},
		{"only gemini", map[string]string{"GEMINI_API_KEY": "g"}, "gemini"},
		{"only ark", map[string]string{"ARK_API_KEY": "a"}, "ark"},
		{"openai wins", map[string]string{"OPENAI_API_KEY": "o", "GEMINI_API_KEY": "g"}, "openai"},
		{"empty gemini ignored", map[string]string{"GEMINI_API_KEY": ""}, "openai"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultAIProvider(envOf(tt.env)); got != tt.want {
				t.Errorf("DefaultAIProvider() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAIKeyEnv(t *testing.T) {
	tests := map[string]string{
		"":        "OPENAI_API_KEY",
		"openai":  "OPENAI_API_KEY",
		"gemini":  "GEMINI_API_KEY",
		"ark":     "ARK_API_KEY",
		"unknown": "",
	}
	for provider, want := range tests {
		if got := AIKeyEnv(provider); got != want {
			t.Errorf("AIKeyEnv(%q) = %q, want %q", provider, got, want)
		}
	}
}
