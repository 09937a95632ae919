package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/park285/adaptive-chess/internal/adapter/chesspresenter"
	"github.com/park285/adaptive-chess/internal/apiclient"
	"github.com/park285/adaptive-chess/internal/events"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch SESSION",
		Short: "Follow a session's events on a running server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			p := chesspresenter.NewPresenter(cmd.OutOrStdout(), nil)
			err = apiclient.Follow(ctx, resolveServer(cmd, cfg, true), args[0], func(ev events.Event) {
				_ = p.Show(p.Event(ev))
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
	cmd.Flags().String("server", "", "server URL (default from config)")
	return cmd
}
