package router

import (
	"fmt"
	"net/http"

	"github.com/citizenwallet/dao/internal/auth"
	"github.com/citizenwallet/dao/internal/governance"
	"github.com/citizenwallet/dao/internal/governor"
	"github.com/citizenwallet/dao/internal/version"
	"github.com/citizenwallet/dao/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

type Router struct {
	apiKey   string
	g        *governor.Governor
	m        *metrics.Metrics
	registry prometheus.Gatherer
}

func NewServer(apiKey string, g *governor.Governor, m *metrics.Metrics, registry prometheus.Gatherer) *Router {
	return &Router{
		apiKey,
		g,
		m,
		registry,
	}
}

// Handler builds the routes of the api
func (r *Router) Handler() http.Handler {
	cr := chi.NewRouter()

	a := auth.New(r.apiKey)

	// configure middleware
	cr.Use(middleware.RequestID)
	cr.Use(middleware.Logger)
	cr.Use(r.m.Middleware)

	// configure custom middleware
	cr.Use(OptionsMiddleware)
	cr.Use(HealthMiddleware)
	cr.Use(RequestSizeLimitMiddleware(1 << 20)) // Limit request bodies to 1MB
	cr.Use(a.AuthMiddleware)
	cr.Use(middleware.Compress(9))

	// instantiate handlers
	gov := governance.NewService(r.g)
	v := version.NewService()
	sr := newSignedRequests()

	// configure routes
	cr.Get("/version", v.Current)
	cr.Handle("/metrics", metrics.Handler(r.registry))

	cr.Route("/dao", func(cr chi.Router) {
		cr.Get("/treasury", gov.GetTreasury)

		cr.Route("/members", func(cr chi.Router) {
			cr.Get("/", gov.GetMembers)
			cr.Post("/", sr.withSignature(gov.Join))
			cr.Get("/{addr}", gov.GetMember)
		})

		cr.Post("/delegate", sr.withSignature(gov.Delegate))

		cr.Route("/proposals", func(cr chi.Router) {
			cr.Post("/", sr.withSignature(gov.Propose))

			cr.Route("/{id}", func(cr chi.Router) {
				cr.Get("/", gov.GetProposal)
				cr.Get("/state", gov.GetState)
				cr.Post("/votes", sr.withSignature(gov.CastVote))
				cr.Get("/receipts/{addr}", gov.GetReceipt)
				cr.Post("/execute", sr.withSignature(gov.Execute))
			})
		})
	})

	return cr
}

// implement the Server interface
func (r *Router) Start(port int) error {
	// start the server
	return http.ListenAndServe(fmt.Sprintf(":%v", port), r.Handler())
}
