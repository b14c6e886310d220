// Package health synthesizes the dashboard's operational status from
// bounded reachability checks against its dependencies. The probe itself
// never fails: downstream errors become structured sub-statuses and feed
// a deterministic overall verdict.
package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/eggsplain/eggsplain-front/internal/config"
	"github.com/eggsplain/eggsplain-front/internal/upstream"
	"golang.org/x/sync/errgroup"
)

const checkTimeout = 5 * time.Second

// Overall status values
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusError    = "error"
)

// SMTPCheck reports on the mail relay. It is configuration-only; the
// relay is not dialed on every probe.
type SMTPCheck struct {
	Configured bool   `json:"configured"`
	Error      string `json:"error,omitempty"`
}

// APICheck reports on an HTTP dependency
type APICheck struct {
	Configured bool   `json:"configured"`
	Reachable  bool   `json:"reachable"`
	Error      string `json:"error,omitempty"`
}

// Checks groups the individual sub-statuses
type Checks struct {
	SMTP             SMTPCheck `json:"smtp"`
	AdminAPI         APICheck  `json:"adminApi"`
	TranscriptionAPI APICheck  `json:"transcriptionApi"`
}

// Status is the health endpoint's response payload
type Status struct {
	Status        string   `json:"status"`
	Checks        Checks   `json:"checks"`
	MissingConfig []string `json:"missingConfig"`
}

// Prober runs the dependency checks
type Prober struct {
	cfg    config.Config
	admin  *upstream.Client
	client *http.Client
}

// NewProber creates a prober for the configured dependencies
func NewProber(cfg config.Config, admin *upstream.Client) *Prober {
	return &Prober{
		cfg:    cfg,
		admin:  admin,
		client: &http.Client{Timeout: checkTimeout},
	}
}

// Probe runs all sub-checks concurrently and computes the overall status.
// The admin API is a required dependency: missing configuration or an
// unreachable service makes the overall status "error". SMTP and the
// transcription backend are optional and only degrade it.
func (p *Prober) Probe(ctx context.Context) Status {
	status := Status{Status: StatusOK, MissingConfig: []string{}}

	var g errgroup.Group

	g.Go(func() error {
		status.Checks.SMTP = p.checkSMTP()
		return nil
	})
	g.Go(func() error {
		status.Checks.AdminAPI = p.checkAdminAPI(ctx)
		return nil
	})
	g.Go(func() error {
		status.Checks.TranscriptionAPI = p.checkTranscriptionAPI(ctx)
		return nil
	})
	_ = g.Wait()

	if !p.cfg.SMTP.Configured() {
		status.MissingConfig = append(status.MissingConfig, p.cfg.SMTP.MissingVars()...)
	}
	if !p.cfg.AdminConfigured() {
		status.MissingConfig = append(status.MissingConfig, "ADMIN_API_KEY")
	}

	adminHealthy := status.Checks.AdminAPI.Configured && status.Checks.AdminAPI.Reachable
	switch {
	case !adminHealthy:
		status.Status = StatusError
	case !status.Checks.SMTP.Configured || !status.Checks.TranscriptionAPI.Reachable:
		status.Status = StatusDegraded
	}

	return status
}

func (p *Prober) checkSMTP() SMTPCheck {
	if !p.cfg.SMTP.Configured() {
		return SMTPCheck{Error: "SMTP not configured"}
	}
	return SMTPCheck{Configured: true}
}

func (p *Prober) checkAdminAPI(ctx context.Context) APICheck {
	if !p.cfg.AdminConfigured() {
		return APICheck{Error: "Admin API key not configured"}
	}

	check := APICheck{Configured: true}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	reachable, err := p.admin.Reachable(ctx)
	check.Reachable = reachable
	if err != nil {
		if upstream.IsAuthError(err) {
			// Service responded; only the credential is wrong
			check.Error = "Invalid admin API key"
		} else {
			check.Error = fmt.Sprintf("Cannot reach API: %v", err)
		}
	}
	return check
}

func (p *Prober) checkTranscriptionAPI(ctx context.Context) APICheck {
	if p.cfg.APIURL == "" {
		return APICheck{Error: "API URL not configured"}
	}

	check := APICheck{Configured: true}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	ok, err := p.ping(ctx, p.cfg.APIURL+"/health")
	if err != nil || !ok {
		// Older backends have no /health; probe the root before declaring
		// the service down.
		rootOK, rootErr := p.ping(ctx, p.cfg.APIURL)
		if rootErr != nil {
			if err == nil {
				err = rootErr
			}
			check.Error = fmt.Sprintf("Cannot reach API: %v", err)
			return check
		}
		ok = rootOK
	}

	check.Reachable = ok
	if !ok {
		check.Error = "API returned a server error"
	}
	return check
}

func (p *Prober) ping(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return resp.StatusCode < 500, nil
}
