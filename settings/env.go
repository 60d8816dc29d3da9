package settings

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/minios-linux/docsync/syncerr"
	"github.com/minios-linux/docsync/translate"
)

// providerEnv mirrors the environment variables that configure the
// translation provider. Aliases are listed most specific first.
type providerEnv struct {
	APIURL      string `env:"TRANSLATE_API_URL"`
	BaseURL     string `env:"OPENAI_BASE_URL"`
	APIBase     string `env:"OPENAI_API_BASE"`
	Token       string `env:"TRANSLATE_API_TOKEN"`
	OpenAIKey   string `env:"OPENAI_API_KEY"`
	Model       string `env:"TRANSLATE_API_MODEL"`
	OpenAIModel string `env:"OPENAI_MODEL"`
	MaxWorkers  string `env:"TRANSLATE_MAX_WORKERS"`
	Timeout     string `env:"TRANSLATE_TIMEOUT"`
}

// Provider is the resolved provider configuration before validation.
type Provider struct {
	Endpoint string
	Token    string
	Model    string
	// Workers is the raw TRANSLATE_MAX_WORKERS value; the engine validates it.
	Workers string
	Timeout time.Duration
	Proxy   string
	// Source records where each of endpoint, token and model came from
	// ("flag", "env", "store"), for status output.
	Source map[string]string
}

// Overrides are command-line values that win over everything else.
type Overrides struct {
	Endpoint string
	Token    string
	Model    string
	Workers  string
	Timeout  time.Duration
	Proxy    string
}

// FromEnv reads the provider environment variables, taking the first
// non-empty alias of each setting.
func FromEnv() (Provider, error) {
	var raw providerEnv
	if err := env.Parse(&raw); err != nil {
		return Provider{}, syncerr.New(syncerr.KindConfig, "", "", fmt.Errorf("parse env: %w", err))
	}

	p := Provider{
		Endpoint: firstNonEmpty(raw.APIURL, raw.BaseURL, raw.APIBase),
		Token:    firstNonEmpty(raw.Token, raw.OpenAIKey),
		Model:    firstNonEmpty(raw.Model, raw.OpenAIModel),
		Workers:  strings.TrimSpace(raw.MaxWorkers),
		Source:   make(map[string]string),
	}
	for name, v := range map[string]string{"endpoint": p.Endpoint, "token": p.Token, "model": p.Model} {
		if v != "" {
			p.Source[name] = "env"
		}
	}

	if s := strings.TrimSpace(raw.Timeout); s != "" {
		d, err := parseTimeout(s)
		if err != nil {
			return Provider{}, syncerr.Configf("TRANSLATE_TIMEOUT: %v", err)
		}
		p.Timeout = d
	}
	return p, nil
}

// Resolve layers flags over the environment over the credential store.
func Resolve(o Overrides) (Provider, error) {
	p, err := FromEnv()
	if err != nil {
		return Provider{}, err
	}

	if info := Get(DefaultProfile); info != nil && info.IsAPI() {
		fill(&p.Endpoint, info.BaseURL, p.Source, "endpoint")
		fill(&p.Token, info.Key, p.Source, "token")
		fill(&p.Model, info.Model, p.Source, "model")
	}

	override(&p.Endpoint, o.Endpoint, p.Source, "endpoint")
	override(&p.Token, o.Token, p.Source, "token")
	override(&p.Model, o.Model, p.Source, "model")
	if o.Workers != "" {
		p.Workers = o.Workers
	}
	if o.Timeout > 0 {
		p.Timeout = o.Timeout
	}
	if o.Proxy != "" {
		p.Proxy = o.Proxy
	}
	return p, nil
}

// TranslateConfig converts p into a validated client configuration. Missing
// settings are a configuration error naming the variables to set.
func (p Provider) TranslateConfig() (translate.Config, error) {
	cfg := translate.Config{
		Endpoint: p.Endpoint,
		Token:    p.Token,
		Model:    p.Model,
		Timeout:  p.Timeout,
		Proxy:    p.Proxy,
	}
	switch {
	case strings.TrimSpace(p.Endpoint) == "":
		return cfg, syncerr.Configf("missing API URL: set TRANSLATE_API_URL (or OPENAI_BASE_URL / OPENAI_API_BASE), or run 'docsync auth login'")
	case strings.TrimSpace(p.Token) == "":
		return cfg, syncerr.Configf("missing API token: set TRANSLATE_API_TOKEN (or OPENAI_API_KEY), or run 'docsync auth login'")
	case strings.TrimSpace(p.Model) == "":
		return cfg, syncerr.Configf("missing API model: set TRANSLATE_API_MODEL (or OPENAI_MODEL), e.g. deepseek-chat")
	}
	return cfg, nil
}

// parseTimeout accepts a Go duration ("90s", "2m") or plain seconds.
func parseTimeout(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("must be positive, got %d", n)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func fill(dst *string, v string, source map[string]string, name string) {
	if *dst == "" && v != "" {
		*dst = v
		source[name] = "store"
	}
}

func override(dst *string, v string, source map[string]string, name string) {
	if v != "" {
		*dst = v
		source[name] = "flag"
	}
}
