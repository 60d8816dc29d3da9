// Package translate implements the document translation client for
// OpenAI-compatible chat-completion endpoints, and the post-processing that
// makes a model response safe to write back in place of a Hugo document.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minios-linux/docsync/langmeta"
)

// DefaultTimeout bounds a single translation request.
const DefaultTimeout = 180 * time.Second

// ---------------------------------------------------------------------------
// Default system prompt
// ---------------------------------------------------------------------------

const DefaultSystemPrompt = `You are a professional technical documentation translator.
Translate the given Hugo/Markdown document into the target language.

You MUST strictly follow these rules:
1) Keep the original format and structure unchanged: front matter delimiters, key order, heading levels, list indentation, blank lines, tables, blockquotes, HTML, Hugo shortcodes, code fences, inline code, link URLs and image paths.
2) Never translate front matter keys, shortcode names, code, URLs, paths, variable names or placeholders.
3) Hugo parses front matter as YAML and backslash escapes do not work inside single-quoted values (wrong: title: 'de l\'imprimante'). Use double quotes or a different quoting style instead.
4) Translate natural-language text only.
5) Output ONLY the complete translated document. No explanations, and do not wrap it in a code fence.`

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// Config holds the connection settings for a translation endpoint.
type Config struct {
	// Endpoint is the API base URL or the full chat-completions URL.
	Endpoint string
	// Token is sent as a bearer token.
	Token string
	// Model is the model identifier.
	Model string
	// Timeout is the per-request timeout (default DefaultTimeout).
	Timeout time.Duration
	// Proxy is an optional HTTP/HTTPS proxy URL. Empty means the
	// environment proxies.
	Proxy string
	// SystemPrompt overrides DefaultSystemPrompt.
	SystemPrompt string
}

// Validate reports the first missing required setting.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Endpoint) == "" {
		missing = append(missing, "endpoint")
	}
	if strings.TrimSpace(c.Token) == "" {
		missing = append(missing, "token")
	}
	if strings.TrimSpace(c.Model) == "" {
		missing = append(missing, "model")
	}
	if len(missing) > 0 {
		return fmt.Errorf("translation provider %s not configured", strings.Join(missing, ", "))
	}
	return nil
}

// ResolveEndpoint turns an API base URL into the chat-completions URL:
// a URL already ending in /chat/completions is kept, one ending in /v1 gets
// /chat/completions, anything else gets /v1/chat/completions. An empty base
// stays empty.
func ResolveEndpoint(base string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	switch {
	case base == "":
		return ""
	case strings.HasSuffix(base, "/chat/completions"):
		return base
	case strings.HasSuffix(base, "/v1"):
		return base + "/chat/completions"
	}
	return base + "/v1/chat/completions"
}

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

// Request is one document to translate.
type Request struct {
	// Text is the full source document.
	Text string
	// SourceLang is the source language key.
	SourceLang string
	// TargetLang is the target language key.
	TargetLang string
	// TargetName is the target display name. Empty means the langmeta name.
	TargetName string
}

// Client sends translation requests. It is safe for concurrent use.
type Client struct {
	cfg      Config
	endpoint string
	http     *http.Client
}

// NewClient validates cfg and returns a client for it.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	return &Client{
		cfg:      cfg,
		endpoint: ResolveEndpoint(cfg.Endpoint),
		http:     makeHTTPClient(cfg.Proxy, cfg.Timeout),
	}, nil
}

// Endpoint returns the resolved chat-completions URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Model returns the configured model.
func (c *Client) Model() string { return c.cfg.Model }

// Translate returns the model's translation of req.Text. The response is
// returned as produced; see UnwrapCodeFence and MatchTrailingNewline.
func (c *Client) Translate(ctx context.Context, req Request) (string, error) {
	body, err := buildOpenAIChatRequest(c.cfg.Model, c.cfg.SystemPrompt, buildUserPrompt(req), 0)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("API request timed out after %s: %w", c.cfg.Timeout, err)
		}
		return "", fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(respBody), 500))
	}

	text, err := extractResponseText(respBody)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("API returned empty content")
	}
	return text, nil
}

func buildUserPrompt(req Request) string {
	name := req.TargetName
	if name == "" {
		name = langmeta.Name(req.TargetLang)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Source language: %s (%s)\n", langmeta.Name(req.SourceLang), req.SourceLang)
	fmt.Fprintf(&b, "Target language: %s (%s)\n\n", name, req.TargetLang)
	b.WriteString("Translate the document below, keeping its original format exactly:\n")
	b.WriteString("---BEGIN DOCUMENT---\n")
	b.WriteString(req.Text)
	b.WriteString("\n---END DOCUMENT---")
	return b.String()
}

// ---------------------------------------------------------------------------
// HTTP client with real proxy support
// ---------------------------------------------------------------------------

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyURL != "" {
		if parsed, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// ---------------------------------------------------------------------------
// Wire format
// ---------------------------------------------------------------------------

func buildOpenAIChatRequest(model, systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	req := struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature"`
		Stream      bool    `json:"stream"`
	}{
		Model: model,
		Messages: []msg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
	}
	return json.Marshal(req)
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error json.RawMessage `json:"error"`
}

// extractResponseText returns choices[0].message.content.
func extractResponseText(body []byte) (string, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("invalid JSON response: %w: %s", err, truncate(string(body), 500))
	}

	if len(resp.Error) > 0 && string(resp.Error) != "null" {
		var errObj struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(resp.Error, &errObj) == nil && errObj.Message != "" {
			return "", fmt.Errorf("API error: %s", errObj.Message)
		}
		return "", fmt.Errorf("API error: %s", truncate(string(resp.Error), 500))
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == nil {
		return "", fmt.Errorf("malformed response, no choices[0].message.content: %s", truncate(string(body), 500))
	}
	return *resp.Choices[0].Message.Content, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
