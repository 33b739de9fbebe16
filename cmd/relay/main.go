package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/drake/relay/app"
	"github.com/drake/relay/config"
	"github.com/drake/relay/debug"
	"github.com/drake/relay/logger"
	"github.com/drake/relay/server"
	"github.com/drake/relay/store"
	"github.com/drake/relay/ui"
)

type options struct {
	serverURL      string
	token          string
	urlOpenCommand string
	noStore        bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "relay",
		Short:        "Terminal client for Mattermost-style chat servers",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.serverURL, "server", envOr("RELAY_SERVER", ""), "Server base URL, e.g. https://chat.example.com")
	cmd.PersistentFlags().StringVar(&opts.token, "token", envOr("RELAY_TOKEN", ""), "Personal access token")
	cmd.PersistentFlags().StringVar(&opts.urlOpenCommand, "url-open-command", envOr("RELAY_URL_OPEN_COMMAND", ""), "Program used to open selected URLs")
	cmd.PersistentFlags().BoolVar(&opts.noStore, "no-store", false, "Disable local draft and read-position persistence")

	return cmd
}

func run(ctx context.Context, opts *options) error {
	if opts.serverURL == "" {
		return fmt.Errorf("--server is required (or set RELAY_SERVER)")
	}
	if opts.token == "" {
		return fmt.Errorf("--token is required (or set RELAY_TOKEN)")
	}

	keys, err := config.LoadKeys(config.KeysFile())
	if err != nil {
		return fmt.Errorf("load key bindings: %w", err)
	}

	var st *store.Store
	if !opts.noStore {
		st, err = store.Open(ctx, config.StatePath())
		if err != nil {
			// Persistence is a convenience; run without it.
			fmt.Fprintf(os.Stderr, "relay: state store unavailable: %v\n", err)
		}
	}
	if st != nil {
		defer st.Close()
	}

	client := server.New(opts.serverURL, opts.token)
	tui := ui.New()

	a := app.New(app.Options{
		Server:         client,
		UI:             tui,
		Store:          st,
		Logs:           logger.New(),
		Keys:           keys,
		URLOpenCommand: opts.urlOpenCommand,
	})

	monCtx, monCancel := context.WithCancel(ctx)
	defer monCancel()
	debug.NewMonitor(monCtx, a, client).Start()

	return a.Run()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
