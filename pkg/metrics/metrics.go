// Package metrics exposes governance activity and API traffic to prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricNamePrefix = "dao_"

type Metrics struct {
	members     prometheus.Counter
	delegations prometheus.Counter
	proposals   prometheus.Counter
	votes       *prometheus.CounterVec
	executions  *prometheus.CounterVec

	requests *prometheus.HistogramVec
}

func New(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		members: factory.NewCounter(prometheus.CounterOpts{
			Name: metricNamePrefix + "members_joined_total",
			Help: "Total number of members that joined",
		}),
		delegations: factory.NewCounter(prometheus.CounterOpts{
			Name: metricNamePrefix + "delegations_total",
			Help: "Total number of delegation changes",
		}),
		proposals: factory.NewCounter(prometheus.CounterOpts{
			Name: metricNamePrefix + "proposals_created_total",
			Help: "Total number of proposals created",
		}),
		votes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: metricNamePrefix + "votes_cast_total",
			Help: "Total number of ballots cast",
		}, []string{"support"}),
		executions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: metricNamePrefix + "executions_total",
			Help: "Total number of proposal executions by result",
		}, []string{"result"}),
		requests: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metricNamePrefix + "http_request_duration_seconds",
			Help:    "Duration of API requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Notify counts a committed governance event
func (m *Metrics) Notify(ev dao.Event) {
	switch ev.Type {
	case dao.EventMemberJoined:
		m.members.Inc()
	case dao.EventDelegateChanged:
		m.delegations.Inc()
	case dao.EventProposalCreated:
		m.proposals.Inc()
	case dao.EventVoteCast:
		m.votes.WithLabelValues(strconv.FormatBool(ev.Support)).Inc()
	case dao.EventProposalExecuted:
		m.executions.WithLabelValues("executed").Inc()
	case dao.EventExecutionReverted:
		m.executions.WithLabelValues("reverted").Inc()
	}
}

// Middleware times every request by its route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the metrics gathered by registry
func Handler(registry prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
