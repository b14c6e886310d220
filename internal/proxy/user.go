package proxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eggsplain/eggsplain-front/internal/config"
	"github.com/eggsplain/eggsplain-front/internal/cookie"
	jsonwriter "github.com/eggsplain/eggsplain-front/internal/json"
	"github.com/eggsplain/eggsplain-front/internal/log"
	"github.com/eggsplain/eggsplain-front/internal/metrics"
	"github.com/eggsplain/eggsplain-front/internal/urlutil"
)

const (
	userKeyHeader = "X-API-Key"

	userUpstreamTimeout = 30 * time.Second
)

// mediaHeaders are relayed unchanged so audio/video byte-range playback
// keeps working through the proxy.
var mediaHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Content-Disposition",
	"Accept-Ranges",
	"Content-Range",
}

// UserProxy forwards user-scoped dashboard calls to the backend with the
// caller's own API token attached. The token comes from the HTTP-only
// token cookie; a statically configured key is used as a legacy fallback
// for deployments predating per-user tokens.
type UserProxy struct {
	cfg     config.Config
	metrics *metrics.Metrics
	client  *http.Client
	timeout time.Duration
}

// NewUserProxy creates the user-scoped forwarder
func NewUserProxy(cfg config.Config, m *metrics.Metrics) *UserProxy {
	return &UserProxy{
		cfg:     cfg,
		metrics: m,
		// Timeout handled per request so 504 can be distinguished from 502
		client:  &http.Client{},
		timeout: userUpstreamTimeout,
	}
}

func (p *UserProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upstreamURL, err := urlutil.JoinPath(p.cfg.APIURL, r.PathValue("path"))
	if err != nil {
		jsonwriter.WriteInternalServerError(w, "Failed to build upstream request")
		return
	}
	if r.URL.RawQuery != "" {
		upstreamURL += "?" + r.URL.RawQuery
	}

	ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
	defer cancel()

	var body io.Reader
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		body = r.Body
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, upstreamURL, body)
	if err != nil {
		jsonwriter.WriteInternalServerError(w, "Failed to build upstream request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	if token := p.resolveToken(r); token != "" {
		req.Header.Set(userKeyHeader, token)
	}

	// Forward Range for audio/video seeking support
	if rangeHeader := r.Header.Get("Range"); rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			p.metrics.UpstreamErrors.WithLabelValues("user", "timeout").Inc()
			log.LogWarnWithFields("user_proxy", "Upstream request timed out", map[string]any{
				"method": r.Method,
				"url":    upstreamURL,
			})
			jsonwriter.WriteGatewayTimeout(w, "Backend request timed out", err.Error())
			return
		}

		p.metrics.UpstreamErrors.WithLabelValues("user", "transport").Inc()
		log.LogErrorWithFields("user_proxy", "Upstream request failed", map[string]any{
			"method": r.Method,
			"url":    upstreamURL,
			"error":  err.Error(),
		})
		jsonwriter.WriteBadGateway(w, "Failed to connect to eggsplain API", err.Error())
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "application/json") {
		p.relayStream(w, resp)
		return
	}

	relayResponse(w, resp)
}

// resolveToken picks the upstream credential: per-user cookie first, then
// the legacy shared key for backwards compatibility.
func (p *UserProxy) resolveToken(r *http.Request) string {
	if token, err := cookie.GetUserToken(r); err == nil && token != "" {
		return token
	}
	return string(p.cfg.FallbackUserAPIKey)
}

// relayStream pipes a non-JSON body straight through without buffering,
// flushing as data arrives. Range semantics survive because the media
// headers, including Content-Range, are copied before the first byte.
func (p *UserProxy) relayStream(w http.ResponseWriter, resp *http.Response) {
	for _, name := range mediaHeaders {
		if value := resp.Header.Get(name); value != "" {
			w.Header().Set(name, value)
		}
	}
	w.WriteHeader(resp.StatusCode)

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 32*1024)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				log.LogDebugWithFields("user_proxy", "Client disconnected mid-stream", map[string]any{
					"error": writeErr.Error(),
				})
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			if err != io.EOF {
				p.metrics.UpstreamErrors.WithLabelValues("user", "stream").Inc()
				log.LogErrorWithFields("user_proxy", "Error reading upstream stream", map[string]any{
					"error": err.Error(),
				})
			}
			return
		}
	}
}
