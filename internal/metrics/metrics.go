// Package metrics wires the Prometheus registry and its HTTP handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mapdesk/geoquery/internal/core/observability"
)

type Config struct {
	Path    string
	Version string
}

// Provider serves the default registry, which carries every metric the
// gateway registers through the observability package.
type Provider struct {
	path string
}

func Init(cfg Config) *Provider {
	observability.ExposeBuildInfo(cfg.Version)
	if cfg.Path == "" {
		cfg.Path = "/metrics"
	}
	return &Provider{path: cfg.Path}
}

func (p *Provider) Path() string { return p.path }

func (p *Provider) Handler() http.Handler {
	return promhttp.Handler()
}
