package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/forum/internal/forum/service"
	"github.com/aussiebroadwan/forum/internal/forum/store"
	"github.com/aussiebroadwan/forum/pkg/httpx"
	"github.com/aussiebroadwan/forum/pkg/jwtx"
	"github.com/aussiebroadwan/forum/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	AccountService *service.AccountService
	PostService    *service.PostService
}

func NewRouter(
	keys *jwtx.KeySet,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// ApplyRoutes registers every route. Services must be set first.
func (r *Router) ApplyRoutes() {
	r.registerUsers()
	r.registerPosts()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerUsers() {
	authn := Authn(r.AccountService)

	r.Mux.Handle("POST /api/user/register", &RegisterHandler{AccountService: r.AccountService})
	r.Mux.Handle("POST /api/user/login", &LoginHandler{AccountService: r.AccountService})

	// The refresh token is the bearer here, so it is checked by the
	// handler rather than the access guard.
	r.Mux.Handle("POST /api/user/refresh", &RefreshHandler{AccountService: r.AccountService})

	r.Mux.Handle("GET /api/user/me", httpx.Chain(&MeHandler{}, authn))
	r.Mux.Handle("PUT /api/user/password", httpx.Chain(&PasswordHandler{AccountService: r.AccountService}, authn))
}

func (r *Router) registerPosts() {
	h := &PostsHandler{PostService: r.PostService}
	authn := Authn(r.AccountService)

	r.Mux.Handle("GET /api/post", httpx.Chain(http.HandlerFunc(h.HandleList), authn))
	r.Mux.Handle("POST /api/post", httpx.Chain(http.HandlerFunc(h.HandleCreate), authn))
	r.Mux.Handle("PUT /api/post", httpx.Chain(http.HandlerFunc(h.HandleUpdate), authn))
	r.Mux.Handle("DELETE /api/post", httpx.Chain(http.HandlerFunc(h.HandleDelete), authn))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys))
	r.Mux.Handle("GET /.well-known/jwks.json", JWKSHandler(r.keys))
}
