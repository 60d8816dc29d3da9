// docsync keeps the translations of a multi-language Hugo documentation tree
// in sync with the documents written in its default language.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/minios-linux/docsync/classify"
	"github.com/minios-linux/docsync/config"
	"github.com/minios-linux/docsync/engine"
	"github.com/minios-linux/docsync/i18n"
	"github.com/minios-linux/docsync/langmeta"
	"github.com/minios-linux/docsync/lockfile"
	"github.com/minios-linux/docsync/settings"
	"github.com/minios-linux/docsync/syncerr"
	"github.com/minios-linux/docsync/translate"
	"github.com/minios-linux/docsync/vcs"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	root       string
	siteConfig string
	workers    string
	timeout    time.Duration
	proxy      string
	apiURL     string
	apiKey     string
	model      string
	exclude    []string
	langs      []string
	reference  string
	keepGoing  bool
	verbose    bool
}

func (g *globalOptions) overrides() settings.Overrides {
	return settings.Overrides{
		Endpoint: g.apiURL,
		Token:    g.apiKey,
		Model:    g.model,
		Workers:  g.workers,
		Timeout:  g.timeout,
		Proxy:    g.proxy,
	}
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:   "docsync",
		Short: "Keep Hugo documentation translations in sync",
		Long: `docsync keeps a multi-language Hugo documentation tree synchronized.

It reads the languages from the Hugo site configuration, finds documents in
the default language whose translations are stale, regenerates them through an
OpenAI-compatible chat-completion endpoint and hands the result to git.

Commands:
  sync        Translate stale documents, then commit and push
  staged      Translate documents pending in the index (pre-commit hook)
  plan        Show what would be translated without calling the API
  status      Show the language registry and provider settings
  auth        Manage stored API credentials

Provider settings (flags override environment, environment overrides the
credential store written by 'docsync auth login'):
  TRANSLATE_API_URL    | OPENAI_BASE_URL | OPENAI_API_BASE
  TRANSLATE_API_TOKEN  | OPENAI_API_KEY
  TRANSLATE_API_MODEL  | OPENAI_MODEL
  TRANSLATE_MAX_WORKERS, TRANSLATE_TIMEOUT`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose = g.verbose
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.root, "root", ".", "Repository root (any directory inside the work tree)")
	pf.StringVar(&g.siteConfig, "config", "", "Hugo site configuration (default: auto-detect hugo.* / config.*)")
	pf.StringVar(&g.workers, "workers", "", "Parallel translation requests (default: TRANSLATE_MAX_WORKERS or 8)")
	pf.DurationVar(&g.timeout, "timeout", 0, "Per-request timeout (default: TRANSLATE_TIMEOUT or 180s)")
	pf.StringVar(&g.proxy, "proxy", "", "HTTP/HTTPS proxy URL for API requests")
	pf.StringVar(&g.apiURL, "api-url", "", "Chat-completions endpoint or API base URL")
	pf.StringVar(&g.apiKey, "api-key", "", "API token")
	pf.StringVar(&g.model, "model", "", "Model name")
	pf.StringSliceVar(&g.exclude, "exclude", nil, "Exclude source documents matching glob (repeatable, ** supported)")
	pf.StringSliceVar(&g.langs, "lang", nil, "Translate only these target languages (comma-separated)")
	pf.StringVar(&g.reference, "reference", "", "Reference target of the history policy (default: en)")
	pf.BoolVar(&g.keepGoing, "keep-going", false, "Run every task and report all failures instead of stopping at the first")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "Verbose output")

	root.AddCommand(
		newSyncCmd(g),
		newStagedCmd(g),
		newPlanCmd(g),
		newStatusCmd(g),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	setupColor()

	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("docsync version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// sync / staged / plan
// ---------------------------------------------------------------------------

// runRequest is what a command asks of the pipeline.
type runRequest struct {
	mode   engine.Mode
	policy string
	dryRun bool
	// commit and push are nil when the flag was not given.
	commit *bool
	push   *bool
}

func newSyncCmd(g *globalOptions) *cobra.Command {
	var (
		policy   string
		doCommit bool
		doPush   bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Translate stale documents, then commit and push",
		Long: `Scan every source document tracked by git and translate those whose
translations are stale into every target language.

Policies:
  history   a document is stale when its last commit is newer than the
            last commit of the reference translation (default)
  checksum  a document is stale when its content differs from the hash
            recorded in docsync.lock

Examples:
  docsync sync
  docsync sync --policy checksum --lang ja,ko
  docsync sync --push=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := runRequest{mode: engine.ModeSync, policy: policy}
			req.commit, req.push = changedBools(cmd, doCommit, doPush)
			return runCommand(cmd.Context(), g, req, os.Stdout)
		},
	}

	cmd.Flags().StringVar(&policy, "policy", string(engine.PolicyHistory), "Staleness policy: history, checksum")
	cmd.Flags().BoolVar(&doCommit, "commit", true, "Commit the translations")
	cmd.Flags().BoolVar(&doPush, "push", true, "Push after committing")
	_ = cmd.RegisterFlagCompletionFunc("policy", completePolicy)

	return cmd
}

func newStagedCmd(g *globalOptions) *cobra.Command {
	var (
		doCommit bool
		doPush   bool
	)

	cmd := &cobra.Command{
		Use:   "staged",
		Short: "Translate documents pending in the index",
		Long: `Translate every source document with staged changes, reading the staged
content rather than the working tree, and stage the translations.

Intended for a pre-commit hook:
  docsync staged`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := runRequest{mode: engine.ModeStaged}
			req.commit, req.push = changedBools(cmd, doCommit, doPush)
			return runCommand(cmd.Context(), g, req, os.Stdout)
		},
	}

	cmd.Flags().BoolVar(&doCommit, "commit", false, "Commit the translations")
	cmd.Flags().BoolVar(&doPush, "push", false, "Push after committing")

	return cmd
}

func newPlanCmd(g *globalOptions) *cobra.Command {
	var (
		mode   string
		policy string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what would be translated without calling the API",
		Long: `List the due source documents and the target files that would be written.
The translation API is never contacted and nothing is written.

Examples:
  docsync plan
  docsync plan --mode staged
  docsync plan --policy checksum`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := parseMode(mode)
			if err != nil {
				return err
			}
			return runCommand(cmd.Context(), g, runRequest{mode: m, policy: policy, dryRun: true}, os.Stdout)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(engine.ModeSync), "Mode: sync, staged")
	cmd.Flags().StringVar(&policy, "policy", string(engine.PolicyHistory), "Staleness policy of sync mode: history, checksum")
	_ = cmd.RegisterFlagCompletionFunc("policy", completePolicy)

	return cmd
}

func completePolicy(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{
		string(engine.PolicyHistory) + "\tcompare commit times with the reference translation",
		string(engine.PolicyChecksum) + "\tcompare content with docsync.lock",
	}, cobra.ShellCompDirectiveNoFileComp
}

func parseMode(s string) (engine.Mode, error) {
	switch engine.Mode(s) {
	case "", engine.ModeSync:
		return engine.ModeSync, nil
	case engine.ModeStaged:
		return engine.ModeStaged, nil
	}
	return "", syncerr.Configf("unknown mode %q (valid: sync, staged)", s)
}

// changedBools returns pointers to the --commit and --push values the user
// set explicitly, nil for the ones left at their default.
func changedBools(cmd *cobra.Command, doCommit, doPush bool) (*bool, *bool) {
	var c, p *bool
	if cmd.Flags().Changed("commit") {
		c = &doCommit
	}
	if cmd.Flags().Changed("push") {
		p = &doPush
	}
	return c, p
}

// runCommand loads the repository, registry and settings, then runs the
// pipeline and prints its outcome.
func runCommand(ctx context.Context, g *globalOptions, req runRequest, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	git, err := vcs.Discover(ctx, g.root)
	if err != nil {
		return syncerr.VCS(err)
	}
	logDebug(i18n.T("Repository: %s"), git.Root)

	proj, err := config.LoadProjectFile(git.Root)
	if err != nil {
		return err
	}
	sitePath, err := siteConfigPath(g, proj, git.Root)
	if err != nil {
		return err
	}
	reg, err := config.LoadRegistry(sitePath)
	if err != nil {
		return err
	}
	logDebug(i18n.T("Site configuration: %s"), sitePath)

	prov, err := settings.Resolve(g.overrides())
	if err != nil {
		return err
	}

	cfg := buildEngineConfig(g, proj, prov, req)
	cfg.Root = git.Root
	cfg.Registry = reg
	cfg.VCS = git

	start := time.Now()
	rep, err := engine.Run(ctx, cfg)
	if err != nil {
		if rep != nil {
			reportFailure(rep)
		}
		return err
	}

	if req.dryRun {
		printPlan(out, rep)
		return nil
	}
	reportRun(rep, time.Since(start))
	return nil
}

// siteConfigPath picks the site configuration: --config, then the project
// file, then auto-detection in the repository root.
func siteConfigPath(g *globalOptions, proj *config.ProjectFile, root string) (string, error) {
	if g.siteConfig != "" {
		return g.siteConfig, nil
	}
	return proj.SiteConfigPath(root)
}

// buildEngineConfig merges flags, the resolved provider settings and the
// project file into a run configuration. Repository, registry and VCS are
// left for the caller.
func buildEngineConfig(g *globalOptions, proj *config.ProjectFile, prov settings.Provider, req runRequest) engine.Config {
	cfg := engine.Config{
		Mode:      req.mode,
		Policy:    engine.Policy(req.policy),
		Reference: g.reference,
		Langs:     g.langs,
		Classify: classify.Options{
			Extensions: proj.ExtensionsOrDefault(),
		},
		Workers:      prov.Workers,
		KeepGoing:    g.keepGoing,
		DryRun:       req.dryRun,
		CommitPrefix: proj.CommitPrefixOrDefault(),
		Provider:     providerFactory(prov),
		OnLog:        logInfo,
		OnError:      logError,
		OnStart: func(t engine.Task) {
			logDebug(i18n.T("Translating %s -> %s"), t.Doc.Path, t.OutputPath())
		},
		OnDone: func(o engine.Outcome) {
			if o.Err != nil {
				return
			}
			if o.Changed {
				logSuccess("%s (%s)", o.Path, humanize.Bytes(uint64(o.Bytes)))
			} else {
				logDebug(i18n.T("%s unchanged"), o.Path)
			}
		},
	}

	if proj != nil {
		if cfg.Reference == "" {
			cfg.Reference = proj.ReferenceLang
		}
		cfg.Targets = proj.Languages
		cfg.Classify.Exclude = append(cfg.Classify.Exclude, proj.Exclude...)
		if cfg.Workers == "" && proj.Workers > 0 {
			cfg.Workers = strconv.Itoa(proj.Workers)
		}
	}
	cfg.Classify.Exclude = append(cfg.Classify.Exclude, g.exclude...)

	cfg.Commit, cfg.Push = completionFlags(req, proj)
	return cfg
}

// completionFlags decides whether to commit and push. sync commits and pushes
// by default, staged only stages. The project file may turn off the push of
// sync; explicit flags win. Nothing is pushed without a commit.
func completionFlags(req runRequest, proj *config.ProjectFile) (doCommit, doPush bool) {
	if req.mode == engine.ModeSync {
		doCommit, doPush = true, true
		if proj != nil && proj.Push != nil {
			doPush = *proj.Push
		}
	}
	if req.commit != nil {
		doCommit = *req.commit
	}
	if req.push != nil {
		doPush = *req.push
	}
	if !doCommit {
		doPush = false
	}
	return doCommit, doPush
}

// providerFactory defers validation of the provider settings until the
// engine has work for it.
func providerFactory(prov settings.Provider) func() (engine.Translator, error) {
	return func() (engine.Translator, error) {
		tc, err := prov.TranslateConfig()
		if err != nil {
			return nil, err
		}
		client, err := translate.NewClient(tc)
		if err != nil {
			return nil, syncerr.New(syncerr.KindConfig, "", "", err)
		}
		logInfo(i18n.T("Using model %s at %s"), client.Model(), client.Endpoint())
		return client, nil
	}
}

// ---------------------------------------------------------------------------
// Output
// ---------------------------------------------------------------------------

// printPlan writes the due documents and their planned targets.
func printPlan(w io.Writer, rep *engine.Report) {
	if len(rep.Tasks) == 0 {
		fmt.Fprintln(w, i18n.T("Nothing to translate."))
		return
	}

	var current string
	for _, t := range rep.Tasks {
		if t.Doc.Path != current {
			current = t.Doc.Path
			fmt.Fprintf(w, "%s\n", colorTitle(current))
		}
		fmt.Fprintf(w, "  -> %-6s %s\n", t.Target.Key, t.OutputPath())
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, i18n.N("%d document due", "%d documents due", len(rep.Due))+"\n", len(rep.Due))
	fmt.Fprintf(w, i18n.N("%d target file planned", "%d target files planned", len(rep.Tasks))+"\n", len(rep.Tasks))
}

// reportRun logs the summary of a successful run.
func reportRun(rep *engine.Report, elapsed time.Duration) {
	if len(rep.Tasks) == 0 {
		logSuccess("%s", i18n.T("All translations are up to date"))
		return
	}

	var written, total int
	for _, o := range rep.Outcomes {
		if o.Changed {
			written++
			total += o.Bytes
		}
	}
	logSuccess(i18n.N("Translated %d file, %d written (%s) in %s", "Translated %d files, %d written (%s) in %s", len(rep.Outcomes)),
		len(rep.Outcomes), written, humanize.Bytes(uint64(total)), elapsed.Round(time.Second))

	c := rep.Completion
	switch {
	case len(c.Staged) == 0:
		logInfo("%s", i18n.T("No file changed, nothing staged"))
	case c.Pushed:
		logSuccess(i18n.T("Committed and pushed: %s"), c.Message)
	case c.Committed:
		logSuccess(i18n.T("Committed: %s"), c.Message)
	default:
		logSuccess(i18n.N("Staged %d file", "Staged %d files", len(c.Staged)), len(c.Staged))
	}
}

// reportFailure tells the operator where a failed run left its work. A
// failure after staging lists the index, otherwise the working tree.
func reportFailure(rep *engine.Report) {
	c := rep.Completion
	switch {
	case c.Committed:
		logWarning(i18n.T("Committed but not pushed: %s"), c.Message)
		return
	case len(c.Staged) > 0:
		logWarning(i18n.N("%d file was staged but not committed:", "%d files were staged but not committed:", len(c.Staged)), len(c.Staged))
		for _, p := range c.Staged {
			fmt.Fprintf(logOut, "  %s\n", p)
		}
		return
	}

	var written []string
	for _, o := range rep.Outcomes {
		if o.Err == nil && o.Changed {
			written = append(written, o.Path)
		}
	}
	if len(written) == 0 {
		return
	}
	logWarning(i18n.N("%d translation was written but not staged:", "%d translations were written but not staged:", len(written)), len(written))
	for _, p := range written {
		fmt.Fprintf(logOut, "  %s\n", p)
	}
}

// ---------------------------------------------------------------------------
// status
// ---------------------------------------------------------------------------

func newStatusCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the language registry and provider settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), g, os.Stdout)
		},
	}
}

func runStatus(ctx context.Context, g *globalOptions, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	root := g.root
	if git, err := vcs.Discover(ctx, g.root); err == nil {
		root = git.Root
	} else {
		logWarning(i18n.T("Not a git work tree: %v"), err)
	}

	proj, err := config.LoadProjectFile(root)
	if err != nil {
		return err
	}
	sitePath, err := siteConfigPath(g, proj, root)
	if err != nil {
		return err
	}
	reg, err := config.LoadRegistry(sitePath)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%s\n", colorTitle(i18n.T("Languages")))
	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintf(w, "  %-20s %s\n", i18n.T("Site config:"), relOrAbs(root, sitePath))
	fmt.Fprintf(w, "  %-20s %s (%s)\n", i18n.T("Source:"), reg.SourceLang, reg.SourceDir)

	reference := g.reference
	if reference == "" && proj != nil {
		reference = proj.ReferenceLang
	}
	if reference == "" {
		reference = config.DefaultReferenceLang
	}
	if len(reg.Targets) == 0 {
		fmt.Fprintf(w, "  %-20s %s\n", i18n.T("Targets:"), colorNote(i18n.T("none")))
	} else {
		fmt.Fprintf(w, "  %s\n", i18n.T("Targets:"))
		for _, t := range reg.Targets {
			mark := ""
			if t.Key == reference {
				mark = " " + colorNote(i18n.T("(reference)"))
			}
			native := ""
			if m, ok := langmeta.Resolve(t.Key); ok {
				native = m.Native
			}
			fmt.Fprintf(w, "    %-8s %-24s %-20s %s%s\n", t.Key, t.Name, native, t.ContentDir, mark)
		}
	}
	if _, err := reg.Reference(reference); err != nil {
		fmt.Fprintf(w, "  %s\n", colorBad(err.Error()))
	}

	if lf, err := lockfile.Load(root); err == nil {
		fmt.Fprintf(w, "  %-20s %s\n", i18n.T("Checksum ledger:"), lf.Summary())
		if verbose {
			for _, p := range lf.Paths() {
				fmt.Fprintf(w, "    %s\n", p)
			}
		}
	}

	prov, err := settings.Resolve(g.overrides())
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%s\n", colorTitle(i18n.T("Provider")))
	fmt.Fprintln(w, strings.Repeat("─", 60))
	printSetting(w, i18n.T("Endpoint:"), prov.Endpoint, prov.Source["endpoint"])
	printSetting(w, i18n.T("Model:"), prov.Model, prov.Source["model"])
	printSetting(w, i18n.T("Token:"), settings.MaskKey(prov.Token), prov.Source["token"])
	if _, err := prov.TranslateConfig(); err != nil {
		fmt.Fprintf(w, "  %s\n", colorNote(err.Error()))
	}
	fmt.Fprintln(w)
	return nil
}

func printSetting(w io.Writer, label, value, source string) {
	if source == "" {
		fmt.Fprintf(w, "  %-20s %s\n", label, colorBad(i18n.T("not set")))
		return
	}
	fmt.Fprintf(w, "  %-20s %s %s\n", label, colorGood(value), "("+source+")")
}

func relOrAbs(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}
