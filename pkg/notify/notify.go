// Package notify runs the full send pipeline: gather variables, render the
// message template, materialize the payload and post it.
package notify

import (
	"context"

	"github.com/spf13/afero"

	"github.com/arthur-debert/slack-send/pkg/errors"
	"github.com/arthur-debert/slack-send/pkg/logging"
	"github.com/arthur-debert/slack-send/pkg/payload"
	"github.com/arthur-debert/slack-send/pkg/render"
	"github.com/arthur-debert/slack-send/pkg/vars"
	"github.com/arthur-debert/slack-send/pkg/webhook"
)

// Poster delivers a payload body. *webhook.Client satisfies it.
type Poster interface {
	Post(ctx context.Context, url string, body []byte) error
}

// Options defines the inputs for Send and Preview.
type Options struct {
	// Template is the path to the root message template.
	Template string
	// Vars selects the variable sources.
	Vars vars.Options
	// SearchRoots are extra include directories after the template's own.
	SearchRoots []string
	// Strict fails on undefined template variables instead of logging them.
	Strict bool
	// Policy overrides the undefined-variable policy chosen by Strict.
	Policy render.UndefinedPolicy

	// WebhookURL is where Send posts the payload.
	WebhookURL string
	// SendEmpty posts an empty body when the template renders to nothing.
	SendEmpty bool
	// DryRun runs everything except the POST.
	DryRun bool

	// Fs backs templates and variable files; nil means the OS filesystem.
	Fs afero.Fs
	// Renderer is reused when set so cached includes survive across calls.
	Renderer *render.Renderer
	// Poster defaults to a webhook.Client with default settings.
	Poster Poster
}

// Result describes what the pipeline produced.
type Result struct {
	Variables vars.Map
	Rendered  string
	Payload   *payload.Payload
	// Sent is true once the webhook accepted the request.
	Sent bool
	// Skipped is true when there was nothing to send.
	Skipped bool
}

// Preview renders and materializes the payload without sending it.
func Preview(opts Options) (*Result, error) {
	log := logging.GetLogger("notify")
	log.Debug().Str("command", "Preview").Str("template", opts.Template).Msg("Executing command")

	return build(opts)
}

// Send renders the template and posts the payload to the webhook.
//
// A template that renders to nothing is not posted unless SendEmpty is set,
// in which case an empty-body request is made. A JSON null is posted as
// "null".
func Send(ctx context.Context, opts Options) (*Result, error) {
	log := logging.GetLogger("notify")
	log.Debug().Str("command", "Send").Str("template", opts.Template).Msg("Executing command")

	if !opts.DryRun {
		if err := webhook.ValidateURL(opts.WebhookURL); err != nil {
			return nil, err
		}
	}

	result, err := build(opts)
	if err != nil {
		return nil, err
	}

	body := []byte(result.Payload.Raw)
	if result.Payload.Empty() {
		if !opts.SendEmpty {
			log.Info().Msg("Template rendered to nothing, skipping delivery")
			result.Skipped = true
			return result, nil
		}
		body = nil
	}

	if opts.DryRun {
		log.Info().Int("bytes", len(body)).Msg("Dry run, not posting payload")
		return result, nil
	}

	if err := poster(opts).Post(ctx, opts.WebhookURL, body); err != nil {
		return result, err
	}
	result.Sent = true

	log.Info().Str("command", "Send").Msg("Command finished")
	return result, nil
}

func build(opts Options) (*Result, error) {
	if opts.Template == "" {
		return nil, errors.New(errors.ErrInvalidInput, "template path is required")
	}

	varOpts := opts.Vars
	if varOpts.Fs == nil {
		varOpts.Fs = opts.Fs
	}

	variables, err := vars.Aggregate(varOpts)
	if err != nil {
		return nil, err
	}

	rendered, err := renderer(opts).Render(opts.Template, variables)
	if err != nil {
		return nil, err
	}

	p, err := payload.Materialize(rendered)
	if err != nil {
		return nil, err
	}

	return &Result{
		Variables: variables,
		Rendered:  rendered,
		Payload:   p,
	}, nil
}

func renderer(opts Options) *render.Renderer {
	if opts.Renderer != nil {
		return opts.Renderer
	}
	return NewRenderer(opts)
}

// NewRenderer builds the Renderer described by opts. Callers rendering
// repeatedly (watch mode) keep it in Options.Renderer.
func NewRenderer(opts Options) *render.Renderer {
	rOpts := []render.Option{render.WithSearchRoots(opts.SearchRoots...)}
	if opts.Fs != nil {
		rOpts = append(rOpts, render.WithFs(opts.Fs))
	}
	switch {
	case opts.Policy != nil:
		rOpts = append(rOpts, render.WithUndefinedPolicy(opts.Policy))
	case opts.Strict:
		rOpts = append(rOpts, render.WithUndefinedPolicy(render.StrictUndefined{}))
	}
	return render.New(rOpts...)
}

func poster(opts Options) Poster {
	if opts.Poster != nil {
		return opts.Poster
	}
	return webhook.NewClient(webhook.DefaultTimeout, webhook.DefaultUserAgent)
}
