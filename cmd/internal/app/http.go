package app

import (
	"net/http"

	authapi "github.com/Jager4561/car-case-auth/cmd/internal/auth/api"
)

func registerHTTP(mux *http.ServeMux, a *App, auth *authapi.Handler) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if a.cfg.ReadinessRequireDB && a.dbPool == nil {
			http.Error(w, "db not configured", http.StatusServiceUnavailable)
			return
		}

		for _, p := range a.probes {
			if err := p.check(r.Context()); err != nil {
				http.Error(w, p.name+" not ready", http.StatusServiceUnavailable)
				a.log.Info("readyz.not_ready", "dep", p.name, "err", err)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	mux.Handle("/metrics", a.metrics.Handler())

	auth.Register(mux)
}
