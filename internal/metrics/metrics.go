// Package metrics collects Prometheus metrics for the storefront.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services report domain events through.
type Recorder interface {
	RecordSignIn(method, outcome string)
	RecordReset(stage, outcome string)
}

type Collector struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	signIns  *prometheus.CounterVec
	resets   *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "goodie_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "goodie_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "goodie_sign_ins_total",
			Help: "Sign-in attempts by method (password or provider name) and outcome.",
		}, []string{"method", "outcome"}),
		resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "goodie_password_resets_total",
			Help: "Password reset requests and consumptions by outcome.",
		}, []string{"stage", "outcome"}),
	}

	reg.MustRegister(c.requests, c.latency, c.signIns, c.resets)
	return c
}

func (c *Collector) RecordSignIn(method, outcome string) {
	c.signIns.WithLabelValues(method, outcome).Inc()
}

func (c *Collector) RecordReset(stage, outcome string) {
	c.resets.WithLabelValues(stage, outcome).Inc()
}

func (c *Collector) RecordHTTP(method, route string, status int, d time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.latency.WithLabelValues(method, route).Observe(d.Seconds())
}

// Middleware records every request under its route pattern, not the raw
// path, so ids in URLs do not explode label cardinality.
func (c *Collector) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()

		status := ctx.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := "unmatched"
		if r := ctx.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		c.RecordHTTP(ctx.Method(), route, status, time.Since(start))
		return err
	}
}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// FiberHandler exposes the scrape endpoint on a fiber route.
func FiberHandler(gatherer prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(Handler(gatherer))
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordSignIn(string, string) {}
func (Nop) RecordReset(string, string)  {}
