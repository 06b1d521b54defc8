package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	slacksend "github.com/arthur-debert/slack-send/cmd/slack-send"
	"github.com/arthur-debert/slack-send/pkg/style"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := slacksend.NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Print the error in red
		fmt.Fprintln(os.Stderr, style.Get("error").Render(fmt.Sprintf("Error: %v", err)))
		stop()
		os.Exit(1)
	}
}
