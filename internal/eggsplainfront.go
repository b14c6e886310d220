// Package internal wires the eggsplain dashboard front: configuration,
// the login surface, the authenticated proxies and the HTTP server
// lifecycle.
package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eggsplain/eggsplain-front/internal/adminsession"
	"github.com/eggsplain/eggsplain-front/internal/config"
	"github.com/eggsplain/eggsplain-front/internal/email"
	"github.com/eggsplain/eggsplain-front/internal/googleauth"
	"github.com/eggsplain/eggsplain-front/internal/health"
	"github.com/eggsplain/eggsplain-front/internal/log"
	"github.com/eggsplain/eggsplain-front/internal/metrics"
	"github.com/eggsplain/eggsplain-front/internal/proxy"
	"github.com/eggsplain/eggsplain-front/internal/replay"
	"github.com/eggsplain/eggsplain-front/internal/server"
	"github.com/eggsplain/eggsplain-front/internal/upstream"
	"github.com/eggsplain/eggsplain-front/internal/zoomauth"
)

// EggsplainFront represents the complete dashboard front application
type EggsplainFront struct {
	config     config.Config
	httpServer *server.HTTPServer
}

// NewEggsplainFront creates the application with all dependencies built
func NewEggsplainFront(ctx context.Context, cfg config.Config) (*EggsplainFront, error) {
	log.LogInfoWithFields("eggsplainfront", "Building dashboard front", map[string]any{
		"addr":          cfg.Addr,
		"apiURL":        cfg.APIURL,
		"googleEnabled": cfg.GoogleEnabled,
		"zoomEnabled":   cfg.ZoomConfigured(),
		"smtpEnabled":   cfg.SMTP.Configured(),
	})

	if !cfg.AdminConfigured() {
		log.LogWarn("ADMIN_API_KEY is not set; admin and login surfaces will refuse requests")
	}
	if !cfg.StateSecret.IsSet() {
		log.LogWarn("No signing secret configured; session cookies and OAuth state cannot be issued")
	}

	m := metrics.New()
	admin := upstream.NewClient(cfg)
	sessions := adminsession.NewCodec([]byte(cfg.StateSecret))
	mailer := email.NewSender(cfg.SMTP)
	replays := replay.NewLedger(zoomauth.StateTTL)

	authHandlers := server.NewAuthHandlers(cfg, sessions, admin, mailer, replays)
	googleHandlers := server.NewGoogleHandlers(cfg, authHandlers, replays)
	zoomHandlers := server.NewZoomHandlers(cfg, admin, replays)
	prober := health.NewProber(cfg, admin)

	mux := buildHTTPHandler(cfg, m, sessions, authHandlers, googleHandlers, zoomHandlers, prober)

	handler := server.ChainMiddleware(mux,
		server.NewLoggerMiddleware("http"),
		server.NewRequestIDMiddleware(),
		server.NewCORSMiddleware(cfg.AllowedOrigins),
		server.NewRecoverMiddleware("http"),
	)

	return &EggsplainFront{
		config:     cfg,
		httpServer: server.NewHTTPServer(handler, cfg.Addr),
	}, nil
}

// buildHTTPHandler assembles the route table
func buildHTTPHandler(
	cfg config.Config,
	m *metrics.Metrics,
	sessions adminsession.Codec,
	auth *server.AuthHandlers,
	google *server.GoogleHandlers,
	zoom *server.ZoomHandlers,
	prober *health.Prober,
) *http.ServeMux {
	mux := http.NewServeMux()

	// instrument wraps a handler with per-group request metrics
	instrument := func(group string, h http.Handler) http.Handler {
		return server.ChainMiddleware(h, server.NewMetricsMiddleware(m, group))
	}

	// Login surface
	mux.Handle("POST /api/auth/admin-verify", instrument("auth", http.HandlerFunc(auth.AdminVerify)))
	mux.Handle("GET /api/auth/admin-verify", instrument("auth", http.HandlerFunc(auth.AdminSessionCheck)))
	mux.Handle("POST /api/auth/admin-logout", instrument("auth", http.HandlerFunc(auth.AdminLogout)))
	mux.Handle("POST /api/auth/login-with-password", instrument("auth", http.HandlerFunc(auth.LoginWithPassword)))
	mux.Handle("GET /api/auth/me", instrument("auth", http.HandlerFunc(auth.Me)))
	mux.Handle("POST /api/auth/logout", instrument("auth", http.HandlerFunc(auth.Logout)))
	mux.Handle("POST /api/auth/send-magic-link", instrument("auth", http.HandlerFunc(auth.SendMagicLink)))
	mux.Handle("GET /api/auth/verify-magic-link", instrument("auth", http.HandlerFunc(auth.VerifyMagicLink)))

	// Google sign-in
	mux.Handle("GET /api/auth/google/start", instrument("auth", http.HandlerFunc(google.Start)))
	mux.Handle("GET "+googleauth.CallbackPath, instrument("auth", http.HandlerFunc(google.Callback)))
	mux.Handle("GET /api/auth/oauth-callback", instrument("auth", http.HandlerFunc(google.OAuthCallback)))

	// Zoom account connection
	mux.Handle("POST /api/zoom/oauth/start", instrument("zoom", http.HandlerFunc(zoom.Start)))
	mux.Handle("POST /api/zoom/oauth/complete", instrument("zoom", http.HandlerFunc(zoom.Complete)))

	// Proxies. The admin proxy sits behind the session middleware; the
	// user proxy resolves its own credential per request.
	adminProxy := server.ChainMiddleware(proxy.NewAdminProxy(cfg, m), server.NewAdminSessionMiddleware(sessions))
	mux.Handle("/api/admin/{path...}", instrument("admin_proxy", adminProxy))
	mux.Handle("/api/eggsplain/{path...}", instrument("user_proxy", proxy.NewUserProxy(cfg, m)))

	// Operational surface
	mux.Handle("GET /api/health", instrument("health", server.NewHealthHandler(prober)))
	mux.Handle("GET /metrics", m.Handler())

	return mux
}

// Run starts the application and blocks until shutdown
func (e *EggsplainFront) Run() error {
	log.LogInfoWithFields("eggsplainfront", "Starting dashboard front", map[string]any{
		"addr": e.config.Addr,
	})

	errChan := make(chan error, 1)
	go func() {
		if err := e.httpServer.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var shutdownReason string
	select {
	case sig := <-sigChan:
		shutdownReason = fmt.Sprintf("signal %v", sig)
		log.LogInfoWithFields("eggsplainfront", "Received shutdown signal", map[string]any{
			"signal": sig.String(),
		})
	case err := <-errChan:
		shutdownReason = fmt.Sprintf("error: %v", err)
		log.LogErrorWithFields("eggsplainfront", "Shutting down due to error", map[string]any{
			"error": err.Error(),
		})
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.httpServer.Stop(shutdownCtx); err != nil {
		log.LogErrorWithFields("eggsplainfront", "HTTP server shutdown error", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	log.LogInfoWithFields("eggsplainfront", "Shutdown complete", map[string]any{
		"reason": shutdownReason,
	})
	return nil
}
