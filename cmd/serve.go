// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sqlagent/cli/internal/bridge"
	"sqlagent/cli/internal/bridge/grpcserver"
	"sqlagent/cli/internal/httpapi"
	"sqlagent/cli/internal/report"
)

var (
	serveAddr     string
	serveGRPCAddr string
)

// serveCmd runs the HTTP API and, when configured, the gRPC tool server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and the gRPC SQL tool",
	Long: `The serve command starts the HTTP API used by the browser frontend:

  POST /api/query          run one guarded SELECT
  POST /api/analyze        keyword report with chart data
  GET  /api/health         database reachability
  GET  /api/database/info  row counts per table

With --grpc-addr (or GRPC_ADDR) it also serves the execute_sql tool over gRPC for
remote agents. Both surfaces use the guarded executor only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		exec, t, closeDB, err := openExecutor(ctx)
		if err != nil {
			return err
		}
		defer closeDB()

		cfg := current.cfg
		addr, grpcAddr := cfg.Server.Addr, cfg.Server.GRPCAddr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		if cmd.Flags().Changed("grpc-addr") {
			grpcAddr = serveGRPCAddr
		}

		log := current.log
		api := httpapi.New(exec, report.New(exec, log), log, httpapi.Options{
			RequestTimeout: cfg.AcquireTimeout() + cfg.QueryTimeout() + 5*time.Second,
			DatabaseLabel:  t.dsn,
		})

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return api.ListenAndServe(gctx, addr) })

		if grpcAddr != "" {
			lis, err := net.Listen("tcp", grpcAddr)
			if err != nil {
				return err
			}
			tools := grpcserver.New(bridge.NewGuarded(exec), log)
			g.Go(func() error { return tools.Serve(gctx, lis) })
		}

		log.Info("serving",
			zap.String("database", t.masked()),
			zap.String("http", addr),
			zap.String("grpc", grpcAddr))
		err = g.Wait()
		if ctx.Err() != nil && err == nil {
			log.Info("shut down")
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":5000", "HTTP listen address")
	serveCmd.Flags().StringVar(&serveGRPCAddr, "grpc-addr", "", "gRPC tool listen address (empty disables)")
}
