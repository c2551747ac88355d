package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/image-to-pdf/internal/config"
	"github.com/kozaktomas/image-to-pdf/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the browser workspace",
	Long: `Start the Image to PDF web server.
The server provides a browser workspace for adding, cropping and reordering
images and downloading the PDF. Each browser session keeps its images in
memory only and they are released when the session ends or expires.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (defaults to WEB_PORT or 8085)")
	serveCmd.Flags().String("host", "", "Host to bind to (defaults to WEB_HOST or 127.0.0.1)")
	serveCmd.Flags().String("session-secret", "", "Secret for signing session cookies (defaults to random)")
}

// resolveServeHostPort resolves port and host from flags, falling back to the config.
func resolveServeHostPort(cmd *cobra.Command, cfg *config.Config) (int, string, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")
	sessionSecret := mustGetString(cmd, "session-secret")

	if port == 0 {
		port = cfg.Web.Port
	}
	if host == "" {
		host = cfg.Web.Host
	}
	if sessionSecret == "" {
		sessionSecret = cfg.Web.SessionSecret
	}
	return port, host, sessionSecret
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	port, host, sessionSecret := resolveServeHostPort(cmd, cfg)

	server := web.NewServer(cfg, port, host, sessionSecret)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Starting Image to PDF on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := serveUntil(ctx, server, 30*time.Second); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}

// lifecycle is the part of the web server serveUntil drives.
type lifecycle interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// serveUntil runs server until ctx is done. It returns only after Shutdown
// has finished, so every session is released before the process exits.
func serveUntil(ctx context.Context, server lifecycle, timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	if err := server.Start(); err != nil {
		return err
	}
	<-done
	return nil
}
