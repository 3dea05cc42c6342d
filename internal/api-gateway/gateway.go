package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Targets são as URLs base dos serviços atrás do gateway
type Targets struct {
	Settlement string
	Wallet     string
	Outcome    string
}

// Requests conta requisições por rota e status
var Requests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "gateway_requests_total",
	Help: "Requisições repassadas por rota e status",
}, []string{"route", "code"})

// route reescreve o prefixo público para o prefixo do serviço
func route(log *zap.Logger, target, from, to string) (http.Handler, error) {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid upstream %q", target)
	}
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.Out.URL.Path = to + strings.TrimPrefix(pr.In.URL.Path, from)
			pr.Out.URL.RawPath = ""
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Warn("upstream error", zap.String("upstream", u.Host), zap.String("path", r.URL.Path), zap.Error(err))
			w.WriteHeader(http.StatusBadGateway)
		},
	}, nil
}

// New monta o roteamento público. Só depósito e consulta de carteira saem
// para fora; débito e crédito são operações internas do settlement.
func New(log *zap.Logger, t Targets) (http.Handler, error) {
	settlement, err := route(log, t.Settlement, "/api/games", "/v1/games")
	if err != nil {
		return nil, err
	}
	admin, err := route(log, t.Settlement, "/api/admin", "/admin")
	if err != nil {
		return nil, err
	}
	wallet, err := route(log, t.Wallet, "/api/wallet", "/wallet")
	if err != nil {
		return nil, err
	}
	outcomes, err := route(log, t.Outcome, "/api/outcomes", "/v1/outcomes")
	if err != nil {
		return nil, err
	}
	feed, err := route(log, t.Outcome, "/api/ws", "/ws")
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/api/games", counted("games", settlement))
	mux.Handle("/api/games/", counted("games", settlement))
	mux.Handle("/api/admin/", counted("admin", admin))
	mux.Handle("GET /api/wallet", counted("wallet", wallet))
	mux.Handle("POST /api/wallet/deposit", counted("wallet", wallet))
	mux.Handle("/api/outcomes/", counted("outcomes", outcomes))
	mux.Handle("/api/ws", feed) // upgrade: sem wrapper de status
	return WithCORS(mux), nil
}

func counted(name string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		h.ServeHTTP(ww, r)
		Requests.WithLabelValues(name, strconv.Itoa(ww.Status())).Inc()
	})
}

func WithCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Player-Address, X-Admin-Token")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
