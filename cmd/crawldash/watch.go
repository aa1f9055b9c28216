package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"crawldash/internal/backend"
	"crawldash/internal/config"
	"crawldash/internal/livesync"
	"crawldash/internal/render"
	"crawldash/internal/render/termview"
	"crawldash/internal/utils"
)

const (
	clearScreen = "\033[H\033[2J"
	redrawEvery = time.Second
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the dashboard in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			// stdout belongs to the view, so logs default to the log file.
			logger := openLogger(cfg, utils.DefaultPaths().LogFile())
			defer logger.Close()
			return watch(cmd.Context(), cfg, logger.Logger, cmd.OutOrStdout())
		},
	}
}

func watch(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	client, err := backend.NewClient(cfg.Backend.URL, backend.WithTimeout(cfg.Backend.Timeout))
	if err != nil {
		return err
	}
	view := termview.New()
	controller := livesync.New(client, render.NewRenderer(view), livesync.WebsocketDialer{}, client.PushURL(),
		livesync.WithLogger(logger))

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := controller.Run(egctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		ticker := time.NewTicker(redrawEvery)
		defer ticker.Stop()
		for {
			if err := redraw(out, view, controller.State()); err != nil {
				return err
			}
			select {
			case <-egctx.Done():
				return nil
			case <-view.Changed():
			case <-ticker.C:
			}
		}
	})
	return eg.Wait()
}

func redraw(out io.Writer, view *termview.View, state livesync.State) error {
	if _, err := io.WriteString(out, clearScreen); err != nil {
		return err
	}
	if err := view.Draw(out); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "push: %s\n", state)
	return err
}
