package slacksend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/slack-send/pkg/notify"
	"github.com/arthur-debert/slack-send/pkg/style"
	"github.com/arthur-debert/slack-send/pkg/watch"
)

func newRenderCmd(f *flags) *cobra.Command {
	var (
		watchFiles bool
		raw        bool
	)

	cmd := &cobra.Command{
		Use:               "render <template>",
		Short:             MsgRenderShort,
		Long:              MsgRenderLong,
		Example:           MsgRenderExample,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: templateCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}

			opts := notifyOptions(cfg, f, args[0])
			opts.Renderer = notify.NewRenderer(opts)
			out := cmd.OutOrStdout()

			result, err := notify.Preview(opts)
			if !watchFiles {
				if err != nil {
					return err
				}
				printPayload(out, result, raw)
				return nil
			}

			if err != nil {
				fmt.Fprintln(out, style.Sprintf(MsgErrRenderWatch, err))
			} else {
				printPayload(out, result, raw)
			}
			return watchAndRender(cmd, opts, out, raw)
		},
	}

	cmd.Flags().BoolVarP(&watchFiles, "watch", "w", false, MsgFlagWatch)
	cmd.Flags().BoolVar(&raw, "raw", false, MsgFlagRaw)
	setFlagGroup(cmd.Flags(), groupTemplates, "watch", "raw")

	return cmd
}

// watchAndRender re-renders on every change until the command context is
// cancelled.
func watchAndRender(cmd *cobra.Command, opts notify.Options, out io.Writer, raw bool) error {
	w, err := watch.New(watch.DefaultDelay)
	if err != nil {
		return fmt.Errorf(MsgErrWatchSetup, err)
	}
	defer func() { _ = w.Close() }()

	dirs := append([]string{filepath.Dir(opts.Template)}, opts.SearchRoots...)
	for _, dir := range dirs {
		if err := w.AddDir(dir); err != nil {
			return fmt.Errorf(MsgErrWatchSetup, err)
		}
	}
	files := append(append([]string{}, opts.Vars.EnvFiles...), opts.Vars.JSONFiles...)
	for _, file := range files {
		if err := w.AddFile(file); err != nil {
			return fmt.Errorf(MsgErrWatchSetup, err)
		}
	}

	fmt.Fprintln(out, style.Render(MsgWatching))
	return w.Run(cmd.Context(), func(events []watch.Event) error {
		names := make([]string, 0, len(events))
		for _, e := range events {
			names = append(names, filepath.Base(e.Path))
		}
		log.Debug().Strs("files", names).Msg("Re-rendering")
		fmt.Fprintln(out, style.Sprintf(MsgChangedFormat, strings.Join(names, ", ")))

		result, err := notify.Preview(opts)
		if err != nil {
			fmt.Fprintln(out, style.Sprintf(MsgErrRenderWatch, err))
			return nil
		}
		printPayload(out, result, raw)
		return nil
	})
}

// printPayload writes the payload as indented JSON, or the rendered text
// unchanged when raw is set.
func printPayload(out io.Writer, result *notify.Result, raw bool) {
	if raw {
		fmt.Fprint(out, result.Rendered)
		if !strings.HasSuffix(result.Rendered, "\n") {
			fmt.Fprintln(out)
		}
		return
	}

	if result.Payload.Empty() {
		fmt.Fprintln(out, style.Render(MsgEmptyPayload))
		return
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, result.Payload.Raw, "", "  "); err != nil {
		fmt.Fprintln(out, string(result.Payload.Raw))
		return
	}
	fmt.Fprintln(out, pretty.String())
}
