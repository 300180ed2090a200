package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec

	// Auth + users
	LoginsTotal   *prometheus.CounterVec
	TokenRejects  *prometheus.CounterVec
	UserOpsTotal  *prometheus.CounterVec
	UsersRegistry prometheus.GaugeFunc

	gatherer prometheus.Gatherer
}

// NewProm registers the service collectors on reg. usersCount backs the
// users gauge and is read at scrape time.
func NewProm(reg *prometheus.Registry, usersCount func() int) *Prom {
	if usersCount == nil {
		usersCount = func() int { return 0 }
	}

	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "userhub",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "userhub",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				// bcrypt dominates login/create latency
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "userhub",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "userhub",
				Subsystem: "auth",
				Name:      "logins_total",
				Help:      "Login attempts by result.",
			},
			[]string{"result"}, // result=success|invalid_credentials|error
		),
		TokenRejects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "userhub",
				Subsystem: "auth",
				Name:      "token_rejections_total",
				Help:      "Requests rejected by the auth gate, by reason.",
			},
			[]string{"reason"},
		),
		UserOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "userhub",
				Subsystem: "users",
				Name:      "operations_total",
				Help:      "User store operations by op and result.",
			},
			[]string{"op", "result"},
		),
		UsersRegistry: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: "userhub",
				Subsystem: "users",
				Name:      "registered",
				Help:      "Number of users currently in the store.",
			},
			func() float64 { return float64(usersCount()) },
		),
		gatherer: reg,
	}
	reg.MustRegister(p.RequestsTotal, p.RequestsDuration, p.InFlight, p.LoginsTotal, p.TokenRejects, p.UserOpsTotal, p.UsersRegistry)

	return p
}

func (p *Prom) ObserveLogin(result string) {
	if p == nil {
		return
	}
	p.LoginsTotal.WithLabelValues(result).Inc()
}

func (p *Prom) ObserveTokenReject(reason string) {
	if p == nil {
		return
	}
	p.TokenRejects.WithLabelValues(reason).Inc()
}

func (p *Prom) ObserveUserOp(op string, err error) {
	if p == nil {
		return
	}

	result := "ok"
	if err != nil {
		result = "error"
	}
	p.UserOpsTotal.WithLabelValues(op, result).Inc()
}

// Handler serves the exposition format for everything registered on the
// registry passed to NewProm.
func (p *Prom) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		// route template is only available after routing; best effort:
		route := ctx.FullPath()

		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}
