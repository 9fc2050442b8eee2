package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/jacentio/cellgraph/api"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "serve the HTTP API",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "addr", Usage: "listen address, overrides the config file"},
	},
	Action: withRuntime(func(cctx *cli.Context, rt *runtime) error {
		addr := rt.cfg.HTTPAddr
		if a := cctx.String("addr"); a != "" {
			addr = a
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           api.New(rt.engine, rt.workspaces, rt.log).Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		rt.log.Info("Server started", zap.String("addr", addr), zap.String("backend", rt.cfg.Backend))

		// Wait for interrupt signal
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case err := <-errCh:
			return err
		case <-quit:
		case <-cctx.Context.Done():
		}

		rt.log.Info("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			rt.log.Error("Server forced to shutdown", zap.Error(err))
			return err
		}

		rt.log.Info("Server exited")
		return nil
	}),
}

var configCmd = &cli.Command{
	Name:  "config",
	Usage: "print the effective configuration as TOML",
	Action: func(cctx *cli.Context) error {
		return configFrom(cctx).Encode(cctx.App.Writer)
	},
}
