package settings

import (
	"strings"
	"testing"
	"time"

	"github.com/minios-linux/docsync/syncerr"
)

// clearProviderEnv isolates a test from the caller's provider settings.
func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TRANSLATE_API_URL", "OPENAI_BASE_URL", "OPENAI_API_BASE",
		"TRANSLATE_API_TOKEN", "OPENAI_API_KEY",
		"TRANSLATE_API_MODEL", "OPENAI_MODEL",
		"TRANSLATE_MAX_WORKERS", "TRANSLATE_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("XDG_DATA_HOME", t.TempDir())
}

func TestFromEnvAliases(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_BASE", "https://base.example.com")
	t.Setenv("OPENAI_BASE_URL", "https://preferred.example.com/v1")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("TRANSLATE_API_TOKEN", "sk-translate")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")
	t.Setenv("TRANSLATE_MAX_WORKERS", " 4 ")
	t.Setenv("TRANSLATE_TIMEOUT", "90")

	p, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if p.Endpoint != "https://preferred.example.com/v1" {
		t.Errorf("Endpoint = %q", p.Endpoint)
	}
	if p.Token != "sk-translate" {
		t.Errorf("Token = %q", p.Token)
	}
	if p.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q", p.Model)
	}
	if p.Workers != "4" {
		t.Errorf("Workers = %q", p.Workers)
	}
	if p.Timeout != 90*time.Second {
		t.Errorf("Timeout = %s", p.Timeout)
	}
}

func TestFromEnvBadTimeout(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("TRANSLATE_TIMEOUT", "soon")
	if _, err := FromEnv(); !syncerr.Is(err, syncerr.KindConfig) {
		t.Fatalf("FromEnv error = %v, want config error", err)
	}
}

func TestResolvePriority(t *testing.T) {
	clearProviderEnv(t)
	if err := SetAPIKey(DefaultProfile, "stored-token", "https://stored.example.com", "stored-model"); err != nil {
		t.Fatalf("SetAPIKey: %v", err)
	}
	t.Setenv("TRANSLATE_API_TOKEN", "env-token")

	p, err := Resolve(Overrides{Model: "flag-model", Timeout: time.Minute})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.Endpoint != "https://stored.example.com" || p.Source["endpoint"] != "store" {
		t.Errorf("endpoint = %q from %q, want store value", p.Endpoint, p.Source["endpoint"])
	}
	if p.Token != "env-token" || p.Source["token"] != "env" {
		t.Errorf("token = %q from %q, want env value", p.Token, p.Source["token"])
	}
	if p.Model != "flag-model" || p.Source["model"] != "flag" {
		t.Errorf("model = %q from %q, want flag value", p.Model, p.Source["model"])
	}
	if p.Timeout != time.Minute {
		t.Errorf("Timeout = %s", p.Timeout)
	}
}

func TestTranslateConfigMissing(t *testing.T) {
	cases := []struct {
		name string
		p    Provider
		want string
	}{
		{name: "endpoint", p: Provider{Token: "t", Model: "m"}, want: "TRANSLATE_API_URL"},
		{name: "token", p: Provider{Endpoint: "https://x", Model: "m"}, want: "TRANSLATE_API_TOKEN"},
		{name: "model", p: Provider{Endpoint: "https://x", Token: "t"}, want: "TRANSLATE_API_MODEL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.p.TranslateConfig()
			if !syncerr.Is(err, syncerr.KindConfig) || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("TranslateConfig error = %v, want config error naming %s", err, tc.want)
			}
		})
	}

	cfg, err := Provider{Endpoint: "https://x", Token: "t", Model: "m", Timeout: time.Second}.TranslateConfig()
	if err != nil {
		t.Fatalf("TranslateConfig: %v", err)
	}
	if cfg.Model != "m" || cfg.Timeout != time.Second {
		t.Fatalf("unexpected config: %#v", cfg)
	}
}
