package slacksend

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/slack-send/internal/version"
	"github.com/arthur-debert/slack-send/pkg/config"
	"github.com/arthur-debert/slack-send/pkg/logging"
	"github.com/arthur-debert/slack-send/pkg/notify"
	"github.com/arthur-debert/slack-send/pkg/style"
	"github.com/arthur-debert/slack-send/pkg/vars"
	"github.com/arthur-debert/slack-send/pkg/webhook"
)

// flags holds every command-line flag. Persistent ones are shared by the
// root command and `render`.
type flags struct {
	envFiles     []string
	jsonFiles    []string
	inline       []string
	sysEnv       bool
	noSysEnv     bool
	templateDirs []string
	strict       bool
	configPath   string
	verbosity    int
	quiet        bool

	webhookURL string
	sendEmpty  bool
	dryRun     bool
	timeout    time.Duration
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	// Initialize custom template formatting functions
	initTemplateFormatting()

	f := &flags{}

	rootCmd := &cobra.Command{
		Use:     "slack-send <template>",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Example: MsgRootExample,
		Version: version.Version,
		Args:    cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// inline vars are checked before any file is touched, the log
			// file included
			if err := vars.ValidateInline(f.inline); err != nil {
				return err
			}

			verbosity := f.verbosity
			if f.quiet {
				verbosity = -1
			}
			logging.SetupLogger(verbosity)
			style.Setup(os.Stdout)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
			return nil
		},
		ValidArgsFunction: templateCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return fmt.Errorf(MsgErrNoTemplate)
			}
			return runSend(cmd, f, args[0])
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	// Variable sources and rendering, shared with `render`
	pf := rootCmd.PersistentFlags()
	pf.StringArrayVarP(&f.envFiles, "env-file", "e", nil, MsgFlagEnvFile)
	pf.StringArrayVarP(&f.jsonFiles, "json-file", "j", nil, MsgFlagJSONFile)
	pf.StringArrayVarP(&f.inline, "var", "v", nil, MsgFlagVar)
	pf.BoolVar(&f.sysEnv, "sys-env", true, MsgFlagSysEnv)
	pf.BoolVar(&f.noSysEnv, "no-sys-env", false, MsgFlagNoSysEnv)
	pf.StringArrayVar(&f.templateDirs, "template-dir", nil, MsgFlagTemplateDir)
	pf.BoolVar(&f.strict, "strict", false, MsgFlagStrict)
	pf.StringVar(&f.configPath, "config", "", MsgFlagConfig)
	pf.CountVar(&f.verbosity, "verbose", MsgFlagVerbose)
	pf.BoolVarP(&f.quiet, "quiet", "q", false, MsgFlagQuiet)

	_ = rootCmd.MarkPersistentFlagFilename("env-file")
	_ = rootCmd.MarkPersistentFlagFilename("json-file", "json", "yaml", "yml", "toml")
	_ = rootCmd.MarkPersistentFlagDirname("template-dir")
	_ = rootCmd.MarkPersistentFlagFilename("config", "toml", "yaml", "yml")
	rootCmd.MarkFlagsMutuallyExclusive("sys-env", "no-sys-env")
	setFlagGroup(pf, groupVariables, "env-file", "json-file", "var", "sys-env", "no-sys-env")
	setFlagGroup(pf, groupTemplates, "template-dir", "strict")

	// Delivery, root command only
	rootCmd.Flags().StringVar(&f.webhookURL, "webhook-url", "", MsgFlagWebhookURL)
	rootCmd.Flags().BoolVar(&f.sendEmpty, "send-empty", false, MsgFlagSendEmpty)
	rootCmd.Flags().BoolVar(&f.dryRun, "dry-run", false, MsgFlagDryRun)
	rootCmd.Flags().DurationVar(&f.timeout, "timeout", webhook.DefaultTimeout, MsgFlagTimeout)
	setFlagGroup(rootCmd.Flags(), groupDelivery, "webhook-url", "send-empty", "dry-run", "timeout")

	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newRenderCmd(f))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func runSend(cmd *cobra.Command, f *flags, template string) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	say := func(msg string) {
		if !f.quiet {
			fmt.Fprintln(out, style.Render(msg))
		}
	}

	opts := notifyOptions(cfg, f, template)
	opts.WebhookURL = cfg.ResolveWebhookURL(os.Getenv)
	opts.SendEmpty = cfg.SendEmpty
	opts.DryRun = f.dryRun
	opts.Poster = webhook.NewClient(cfg.Timeout, cfg.UserAgent)

	log.Info().
		Str("template", template).
		Bool("dry_run", f.dryRun).
		Str("webhook", webhook.RedactURL(opts.WebhookURL)).
		Msg("Sending notification")

	say(MsgSending)
	result, err := notify.Send(cmd.Context(), opts)
	if err != nil {
		return err
	}

	switch {
	case result.Skipped:
		say(MsgSkipped)
	case f.dryRun:
		say(MsgDryRunNotice)
		printPayload(out, result, false)
	default:
		say(MsgDone)
	}
	return nil
}

// loadConfig layers the config file and environment under the flags the
// user actually set.
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	overrides := make(map[string]interface{})
	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}

	if changed("webhook-url") {
		overrides["webhook_url"] = f.webhookURL
	}
	if changed("sys-env") {
		overrides["sys_env"] = f.sysEnv
	}
	if changed("no-sys-env") {
		overrides["sys_env"] = !f.noSysEnv
	}
	if changed("strict") {
		overrides["strict_undefined"] = f.strict
	}
	if changed("send-empty") {
		overrides["send_empty"] = f.sendEmpty
	}
	if changed("timeout") {
		overrides["timeout"] = f.timeout.String()
	}

	cfg, err := config.Load(config.LoadOptions{Path: f.configPath, Overrides: overrides})
	if err != nil {
		return nil, fmt.Errorf(MsgErrLoadConfig, err)
	}
	return cfg, nil
}

// notifyOptions merges configured variable files and template dirs ahead of
// the ones given on the command line.
func notifyOptions(cfg *config.Config, f *flags, template string) notify.Options {
	return notify.Options{
		Template: template,
		Vars: vars.Options{
			EnvFiles:  concat(cfg.EnvFiles, f.envFiles),
			JSONFiles: concat(cfg.JSONFiles, f.jsonFiles),
			Inline:    f.inline,
			UseSysEnv: cfg.SysEnv,
		},
		SearchRoots: concat(cfg.TemplateDirs, f.templateDirs),
		Strict:      cfg.StrictUndefined,
	}
}

func concat(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func templateCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{"json", "j2", "jinja", "tpl"}, cobra.ShellCompDirectiveFilterFileExt
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Summary(logging.AppName))
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}
