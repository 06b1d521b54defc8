package slacksend

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Render a message template and post it to Slack"
	MsgRenderShort     = "Render a template and print the payload"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"

	// Status messages
	MsgSending       = "🚀 Sending slack notification."
	MsgDone          = "\t[success]✅ done.[/success]"
	MsgSkipped       = "\t[warning]Template rendered nothing, not sending.[/warning]"
	MsgDryRunNotice  = "[info]DRY RUN - payload not sent:[/info]"
	MsgEmptyPayload  = "[muted](empty payload)[/muted]"
	MsgWatching      = "[muted]Watching for changes, press Ctrl+C to stop.[/muted]"
	MsgChangedFormat = "[muted]-- %s changed --[/muted]"

	// Error messages
	MsgErrNoTemplate  = "no template specified"
	MsgErrLoadConfig  = "failed to load configuration: %w"
	MsgErrWatchSetup  = "failed to watch files: %w"
	MsgErrRenderWatch = "[error]Error: %v[/error]"

	// Flag descriptions
	MsgFlagEnvFile     = "Path to env-style file with variables (repeatable)"
	MsgFlagJSONFile    = "Path to JSON file with variables (repeatable)"
	MsgFlagVar         = "Single variable in format name=value (repeatable)"
	MsgFlagSysEnv      = "Use the process environment as a source for template variables"
	MsgFlagNoSysEnv    = "Do not use the process environment for template variables"
	MsgFlagWebhookURL  = "Slack webhook URL. If not specified env variable SLACK_WEBHOOK_URL will be used"
	MsgFlagTemplateDir = "Extra directory searched for included templates (repeatable)"
	MsgFlagStrict      = "Fail when the template references an undefined variable"
	MsgFlagSendEmpty   = "Post an empty request when the template renders nothing"
	MsgFlagDryRun      = "Render and print the payload without sending it"
	MsgFlagTimeout     = "HTTP timeout for the webhook request"
	MsgFlagConfig      = "Config file (default $XDG_CONFIG_HOME/slack-send/config.toml)"
	MsgFlagVerbose     = "Increase verbosity (--verbose INFO, twice DEBUG, three times TRACE)"
	MsgFlagQuiet       = "Only print errors"
	MsgFlagWatch       = "Re-render whenever the template or variable files change"
	MsgFlagRaw         = "Print the rendered text as is instead of formatted JSON"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/root-example.txt
	msgRootExampleRaw string
	MsgRootExample    = strings.TrimRight(msgRootExampleRaw, "\n")

	//go:embed msgs/render-long.txt
	msgRenderLongRaw string
	MsgRenderLong    = strings.TrimSpace(msgRenderLongRaw)

	//go:embed msgs/render-example.txt
	msgRenderExampleRaw string
	MsgRenderExample    = strings.TrimRight(msgRenderExampleRaw, "\n")

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw) + "\n"
)
