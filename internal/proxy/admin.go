// Package proxy implements the authenticated reverse-proxy layer: the
// per-resource-family forwarders that attach the right upstream credential
// and relay responses, including streamed media bodies, back to the
// browser. Each request is handled independently; the proxies hold no
// mutable state beyond the shared HTTP clients.
package proxy

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/eggsplain/eggsplain-front/internal/config"
	jsonwriter "github.com/eggsplain/eggsplain-front/internal/json"
	"github.com/eggsplain/eggsplain-front/internal/log"
	"github.com/eggsplain/eggsplain-front/internal/metrics"
	"github.com/eggsplain/eggsplain-front/internal/urlutil"
)

const (
	adminKeyHeader = "X-Admin-API-Key"

	adminUpstreamTimeout = 30 * time.Second
)

// AdminProxy forwards dashboard admin calls to the backend Admin API with
// the shared admin key attached. Session verification happens in the
// middleware chain before a request reaches ServeHTTP; the key itself
// never leaves the server.
type AdminProxy struct {
	cfg     config.Config
	metrics *metrics.Metrics
	client  *http.Client
}

// NewAdminProxy creates the admin-scoped forwarder
func NewAdminProxy(cfg config.Config, m *metrics.Metrics) *AdminProxy {
	return &AdminProxy{
		cfg:     cfg,
		metrics: m,
		client:  &http.Client{Timeout: adminUpstreamTimeout},
	}
}

func (p *AdminProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !p.cfg.AdminConfigured() {
		jsonwriter.WriteInternalServerError(w, "Admin API key not configured")
		return
	}

	upstreamURL, err := urlutil.JoinPath(p.cfg.APIURL, "admin", r.PathValue("path"))
	if err != nil {
		jsonwriter.WriteInternalServerError(w, "Failed to build upstream request")
		return
	}
	if r.URL.RawQuery != "" {
		upstreamURL += "?" + r.URL.RawQuery
	}

	var body io.Reader
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			jsonwriter.WriteBadRequest(w, "Failed to read request body")
			return
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, upstreamURL, body)
	if err != nil {
		jsonwriter.WriteInternalServerError(w, "Failed to build upstream request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(adminKeyHeader, string(p.cfg.AdminAPIKey))

	resp, err := p.client.Do(req)
	if err != nil {
		p.metrics.UpstreamErrors.WithLabelValues("admin", "transport").Inc()
		log.LogErrorWithFields("admin_proxy", "Upstream request failed", map[string]any{
			"method": r.Method,
			"path":   r.PathValue("path"),
			"error":  err.Error(),
		})
		jsonwriter.WriteBadGateway(w, "Failed to connect to Admin API", err.Error())
		return
	}
	defer resp.Body.Close()

	relayResponse(w, resp)
}

// relayResponse copies an upstream response back to the browser, passing
// JSON and non-JSON bodies through with the upstream's status unchanged.
func relayResponse(w http.ResponseWriter, resp *http.Response) {
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}
	w.Header().Set("Content-Type", contentType)

	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.LogDebugWithFields("proxy", "Client disconnected during relay", map[string]any{
			"error": err.Error(),
		})
	}
}
