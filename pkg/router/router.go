package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wehave/market/internal/accounts"
	"github.com/wehave/market/internal/auth"
	"github.com/wehave/market/internal/chain"
	"github.com/wehave/market/internal/crowdfunds"
	"github.com/wehave/market/internal/governance"
	"github.com/wehave/market/internal/push"
	"github.com/wehave/market/internal/services/nearrpc"
	"github.com/wehave/market/internal/snapshot"
	"github.com/wehave/market/internal/version"
	"github.com/wehave/market/internal/wallet"
	"github.com/wehave/market/pkg/market"
)

type Router struct {
	apiKey  string
	network nearrpc.Network
	w       *wallet.Wallet
	keys    accounts.KeyLister
	node    chain.StatusReader
	cfs     *crowdfunds.Service
	gov     *governance.Service
	store   market.SnapshotStore
	tokens  market.PushTokenStore
	metrics prometheus.Gatherer
}

func NewServer(apiKey string, network nearrpc.Network, w *wallet.Wallet, keys accounts.KeyLister, node chain.StatusReader, cfs *crowdfunds.Service, gov *governance.Service, store market.SnapshotStore, tokens market.PushTokenStore, metrics prometheus.Gatherer) *Router {
	return &Router{
		apiKey,
		network,
		w,
		keys,
		node,
		cfs,
		gov,
		store,
		tokens,
		metrics,
	}
}

// Handler builds the routes of the api
func (r *Router) Handler() http.Handler {
	cr := chi.NewRouter()

	a := auth.New(r.apiKey)

	// configure middleware
	cr.Use(middleware.RequestID)
	cr.Use(middleware.Logger)
	cr.Use(middleware.Recoverer)

	// configure custom middleware
	cr.Use(OptionsMiddleware)
	cr.Use(HealthMiddleware)
	cr.Use(RequestSizeLimitMiddleware(10 << 20)) // Limit request bodies to 10MB
	cr.Use(a.AuthMiddleware)
	cr.Use(middleware.Compress(9))

	// instantiate handlers
	v := version.NewService()
	ch := chain.NewService(r.node, r.network, r.w.Contracts)
	acc := accounts.NewService(r.w, r.keys)
	sn := snapshot.NewService(r.store, r.w)
	pu := push.NewService(r.tokens)

	// configure routes
	cr.Get("/version", v.Current)
	cr.Get("/status", ch.Status)
	cr.Get("/accounts", acc.Accounts)

	if r.metrics != nil {
		cr.Handle("/metrics", promhttp.HandlerFor(r.metrics, promhttp.HandlerOpts{}))
	}

	cr.Route("/session", func(cr chi.Router) {
		cr.Get("/", acc.GetSession)
		cr.Post("/", acc.SignIn)
		cr.Delete("/", acc.SignOut)
	})

	cr.Get("/tx/{hash}", acc.TransactionResult)

	cr.Route("/items", func(cr chi.Router) {
		cr.Get("/", r.cfs.ListItems)
		cr.Post("/{ft_prefix}/claim", r.cfs.ClaimTokens)
	})

	cr.Route("/crowdfunds", func(cr chi.Router) {
		cr.Get("/", r.cfs.ListCrowdfunds)
		cr.Post("/", r.cfs.Create)

		cr.Route("/{index}", func(cr chi.Router) {
			cr.Get("/", r.cfs.GetCrowdfund)
			cr.Post("/fund", r.cfs.Contribute)
			cr.Post("/preview", r.cfs.PreviewFunding)
		})
	})

	cr.Route("/gov", func(cr chi.Router) {
		cr.Get("/", r.gov.GetGov)
		cr.Get("/{item}/proposals", r.gov.GetGovProposals)
		cr.Post("/{dao}/proposals", r.gov.CreateProposal)
		cr.Post("/{dao}/proposals/{index}/votes", r.gov.CastVote)
	})

	cr.Route("/snapshot", func(cr chi.Router) {
		cr.Get("/crowdfunds", sn.Crowdfunds)
		cr.Get("/tallies", sn.Tallies)
	})

	cr.Route("/push/{account}", func(cr chi.Router) {
		cr.Put("/", pu.AddToken)
		cr.Delete("/{token}", pu.RemoveAccountToken)
	})

	return cr
}

// Start serves the api on port until the server fails
func (r *Router) Start(port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%v", port),
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return srv.ListenAndServe()
}
