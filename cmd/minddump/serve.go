package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shubh-37/minddump/internal/linear"
	"github.com/shubh-37/minddump/internal/server"
	slackpkg "github.com/shubh-37/minddump/internal/slack"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the Slack and Linear receivers",
	RunE:  runServe,
}

// newHTTPServer serves requests on contexts that keep ctx's values but not
// its cancellation, so a shutdown signal lets Shutdown drain in-flight
// requests instead of aborting them.
func newHTTPServer(ctx context.Context, addr string, h http.Handler) *http.Server {
	base := context.WithoutCancel(ctx)
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	opts := server.Options{
		Pipeline:   a.pipeline,
		Store:      a.store,
		Webhooks:   a.dispatcher,
		Components: a.components,
		Logger:     a.logger,
	}
	if a.db != nil {
		opts.Ping = a.db.Health
	}

	var slackServer *slackpkg.Server
	if a.cfg.SlackConfigured() {
		client, err := slackpkg.NewClient(ctx, a.cfg.Slack.BotToken)
		if err != nil {
			return err
		}
		reactions := slackpkg.NewReactionHandler(client, a.pipeline, a.logger)
		commands := slackpkg.NewCommandHandler(client, a.store, a.logger)
		messages := slackpkg.NewMessageHandler(client, client.BotID(), a.pipeline, commands, reactions, a.logger)
		slackServer = slackpkg.NewServer(messages, reactions, a.cfg.Slack.SigningSecret, a.logger)
		opts.Slack = slackServer
	}

	var linearHandler *linear.WebhookHandler
	if a.cfg.LinearConfigured() {
		linearHandler = linear.NewWebhookHandler(a.pipeline, a.cfg.Linear.WebhookSecret, a.logger)
		opts.Linear = linearHandler
	}

	srv := newHTTPServer(ctx, ":"+a.cfg.Port, server.New(opts).Handler())

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gCtx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	if slackServer != nil {
		slackServer.Wait()
	}
	if linearHandler != nil {
		linearHandler.Wait()
	}
	return err
}
