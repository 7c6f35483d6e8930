package controllers

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/mipastel/pedidos-backend/api/responses"
	"github.com/mipastel/pedidos-backend/pkg/config"
	"github.com/mipastel/pedidos-backend/pkg/instance"
	"github.com/mipastel/pedidos-backend/pkg/logger"
)

// NamedPinger is a dependency reported by /health.
type NamedPinger interface {
	Name() string
	Ping(ctx context.Context) error
}

type healthStatus struct {
	Status    string            `json:"status"`
	Address   string            `json:"address"`
	Instance  string            `json:"instance"`
	Env       string            `json:"env"`
	Databases map[string]string `json:"databases"`
}

// Health pings every database. Any failure turns the response into a 503
// with status "degraded".
func Health(cfg *config.Config, logg *logger.Logger, deps ...NamedPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		out := healthStatus{
			Status:    "ok",
			Address:   localAddress(cfg.App.Host),
			Instance:  instance.GetID(),
			Env:       cfg.App.Env,
			Databases: make(map[string]string, len(deps)),
		}
		for _, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				out.Status = "degraded"
				out.Databases[dep.Name()] = "error"
				if logg != nil {
					logg.Error(logg.WithField(ctx, "database", dep.Name()), "health.ping_failed", err)
				}
				continue
			}
			out.Databases[dep.Name()] = "ok"
		}

		if out.Status != "ok" {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, out)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// localAddress reports the first non-loopback IPv4 when bound to all
// interfaces.
func localAddress(host string) string {
	if host != "" && host != "0.0.0.0" && host != "::" {
		return host
	}
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			return ipnet.IP.String()
		}
	}
	return "127.0.0.1"
}
