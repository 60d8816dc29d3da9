package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minios-linux/docsync/i18n"
	"github.com/minios-linux/docsync/settings"
	"github.com/minios-linux/docsync/translate"
)

// ---------------------------------------------------------------------------
// auth (credential store management)
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored API credentials",
		Long: `Manage the API credentials docsync uses when the provider settings are
not in the environment.

Credentials are stored in $XDG_DATA_HOME/docsync/auth.json (mode 0600).
Environment variables and flags always take precedence.

Examples:
  docsync auth login                                   Prompt for URL, model and token
  docsync auth login --api-url https://api.deepseek.com --model deepseek-chat
  docsync auth logout                                  Remove stored credentials
  docsync auth status                                  Show what is configured`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthStatusCmd(),
	)

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var (
		apiURL string
		apiKey string
		model  string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store API credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return authLogin(os.Stdin, apiURL, apiKey, model)
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "Chat-completions endpoint or API base URL")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API token (prompted when omitted)")
	cmd.Flags().StringVar(&model, "model", "", "Model name")

	return cmd
}

// authLogin fills missing values from in, keeping the stored ones when the
// answer is empty, and saves the default profile.
func authLogin(in io.Reader, apiURL, apiKey, model string) error {
	existing := settings.Get(settings.DefaultProfile)
	if existing == nil {
		existing = &settings.Info{}
	}

	fmt.Fprintf(logOut, "\n%s\n", colorTitle(i18n.T("API Credentials Setup")))
	fmt.Fprintln(logOut, strings.Repeat("─", 60))

	scanner := bufio.NewScanner(in)
	ask := func(label, current, shown string) string {
		if shown != "" {
			fmt.Fprintf(logOut, "  %s [%s]: ", label, colorNote(shown))
		} else {
			fmt.Fprintf(logOut, "  %s: ", label)
		}
		if !scanner.Scan() {
			return current
		}
		if v := strings.TrimSpace(scanner.Text()); v != "" {
			return v
		}
		return current
	}

	if apiURL == "" {
		apiURL = ask(i18n.T("API URL"), existing.BaseURL, existing.BaseURL)
	}
	if model == "" {
		model = ask(i18n.T("Model"), existing.Model, existing.Model)
	}
	if apiKey == "" {
		shown := ""
		if existing.Key != "" {
			shown = settings.MaskKey(existing.Key)
		}
		apiKey = ask(i18n.T("API token"), existing.Key, shown)
	}

	if apiKey == "" {
		return fmt.Errorf("%s", i18n.T("no API token provided"))
	}
	if apiURL == "" {
		return fmt.Errorf("%s", i18n.T("no API URL provided"))
	}

	if err := settings.SetAPIKey(settings.DefaultProfile, apiKey, apiURL, model); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	logSuccess(i18n.T("Credentials saved to %s"), settings.FilePath())
	logInfo(i18n.T("Requests will go to %s"), translate.ResolveEndpoint(apiURL))
	return nil
}

func newAuthLogoutCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				if err := settings.RemoveAll(); err != nil {
					return err
				}
				logSuccess("%s", i18n.T("All stored credentials removed"))
				return nil
			}
			if err := settings.Remove(settings.DefaultProfile); err != nil {
				return err
			}
			logSuccess("%s", i18n.T("Stored credentials removed"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Remove the whole credential file")

	return cmd
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"list", "ls"},
		Short:   "Show stored credentials and environment overrides",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printAuthStatus(logOut)
		},
	}
}

func printAuthStatus(w io.Writer) {
	fmt.Fprintf(w, "\n%s\n", colorTitle(i18n.T("Stored Credentials")))
	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintf(w, "  %-14s %s\n", i18n.T("File:"), settings.FilePath())

	info := settings.Get(settings.DefaultProfile)
	if info == nil || !info.IsAPI() {
		fmt.Fprintf(w, "  %-14s %s\n", settings.DefaultProfile, colorBad(i18n.T("not configured")))
	} else {
		fmt.Fprintf(w, "  %-14s %s (key: %s)\n", settings.DefaultProfile, colorGood(i18n.T("configured")), settings.MaskKey(info.Key))
		if info.BaseURL != "" {
			fmt.Fprintf(w, "  %14s endpoint: %s\n", "", info.BaseURL)
		}
		if info.Model != "" {
			fmt.Fprintf(w, "  %14s model:    %s\n", "", info.Model)
		}
	}

	fmt.Fprintf(w, "\n  %s\n", colorNote(i18n.T("Environment Variables")))
	for _, name := range []string{
		"TRANSLATE_API_URL", "OPENAI_BASE_URL", "OPENAI_API_BASE",
		"TRANSLATE_API_TOKEN", "OPENAI_API_KEY",
		"TRANSLATE_API_MODEL", "OPENAI_MODEL",
		"TRANSLATE_MAX_WORKERS", "TRANSLATE_TIMEOUT",
	} {
		v := os.Getenv(name)
		switch {
		case v == "":
			continue
		case strings.Contains(name, "TOKEN") || strings.Contains(name, "KEY"):
			v = settings.MaskKey(v)
		}
		fmt.Fprintf(w, "  %-22s %s\n", name+":", colorGood(v))
	}
	fmt.Fprintln(w)
}
