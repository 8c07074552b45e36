package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arifinrio95/auto-dashboard/internal/dashboard"
	"github.com/arifinrio95/auto-dashboard/internal/llm"
	"github.com/arifinrio95/auto-dashboard/internal/server"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload form and interactive dashboards",
		Long: `serve starts the web UI. Each upload is planned once; filter changes
re-render the stored run until its session expires (server.session_ttl).
Logs are JSON unless --log-format says otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load(true, "json")
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			closeMetrics := setupMetrics(ctx, cfg.Metrics, logger)
			defer closeMetrics()

			llmCfg := cfg.LLM()
			client, err := llm.NewAnthropic(llmCfg)
			if err != nil {
				return err
			}
			pipeline := dashboard.NewPipeline(llm.NewRequester(llmCfg, client, logger), logger)

			srv := server.New(pipeline, server.Options{
				SessionTTL:     cfg.Server.SessionTTL,
				MaxUploadBytes: cfg.Limits.MaxUploadBytes,
				MaxRows:        cfg.Limits.MaxRows,
			}, logger)
			return srv.Start(ctx, cfg.Server.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address (overrides server.addr)")
	return cmd
}
