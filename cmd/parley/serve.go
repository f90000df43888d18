package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	httpAdapter "github.com/aretw0/parley/internal/adapters/http"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/internal/metrics"
	"github.com/aretw0/parley/pkg/adapters/memory"
	redisadapter "github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/session"
	"github.com/aretw0/parley/pkg/template"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the Parley engine in server mode, exposing session orchestration as a JSON API over HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		if cmd.Flags().Changed("port") {
			port, _ := cmd.Flags().GetString("port")
			cfg.Addr = ":" + port
		}
		if cmd.Flags().Changed("templates") {
			cfg.TemplateDir, _ = cmd.Flags().GetString("templates")
		}

		logger := logging.New(cfg.LogLevel)

		registry := template.NewRegistry()
		loaded, err := registry.LoadDir(cfg.TemplateDir)
		if err != nil {
			fmt.Printf("Error loading templates from %s: %v\n", cfg.TemplateDir, err)
			os.Exit(1)
		}

		var store ports.SessionStore
		opts := []session.Option{session.WithLogger(logger)}
		switch cfg.Backend {
		case config.BackendRedis:
			redisStore := redisadapter.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
				redisadapter.WithTTL(cfg.SessionTTL))
			defer redisStore.Close()
			store = redisStore
			opts = append(opts, session.WithLocker(redisadapter.NewLocker(redisStore.Client(), "parley:")))
		default:
			store = memory.NewStore()
		}

		promRegistry := prometheus.NewRegistry()
		opts = append(opts, session.WithRecorder(metrics.New(promRegistry)))

		// Views travel back in the HTTP responses, so the push channel is idle.
		renderer := ports.RendererFunc(func(context.Context, string, domain.ViewNode) error { return nil })
		orchestrator := session.New(registry, store, renderer, opts...)

		handler := httpAdapter.NewHandler(orchestrator, registry,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithGatherer(promRegistry),
		)

		srv := &http.Server{
			Addr:    cfg.Addr,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Parley Server on %s\n", srv.Addr)
			fmt.Printf("Loaded %d template(s) from: %s\n", loaded, cfg.TemplateDir)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			// Error when starting HTTP server.
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			// Asking listener to shut down and shed load.
			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Parley Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}
