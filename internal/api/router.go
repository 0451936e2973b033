package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/ichinomiya1038/sample-app/internal/api/handlers"
	"github.com/ichinomiya1038/sample-app/internal/auth"
	"github.com/ichinomiya1038/sample-app/internal/config"
	"github.com/ichinomiya1038/sample-app/internal/metrics"
	"github.com/ichinomiya1038/sample-app/internal/middleware"
	"github.com/ichinomiya1038/sample-app/internal/services"
)

type RouterDeps struct {
	Cfg     config.Config
	Log     *slog.Logger
	TM      *auth.TokenManager
	UserSvc *services.UserService
	RelSvc  *services.RelationshipService
	PostSvc *services.MicropostService
	FeedSvc *services.FeedService
}

func NewRouter(d RouterDeps) http.Handler {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	perPage := d.Cfg.PerPage

	sessions := handlers.NewSessionsHandler(d.UserSvc, d.TM, d.Cfg.SecureCookies)
	users := &handlers.UsersHandler{Users: d.UserSvc, Rels: d.RelSvc, Posts: d.PostSvc, Sessions: sessions, PerPage: perPage}
	rels := &handlers.RelationshipsHandler{Rels: d.RelSvc, PerPage: perPage}
	posts := &handlers.MicropostsHandler{Posts: d.PostSvc}
	feed := &handlers.FeedHandler{Feed: d.FeedSvc, PerPage: perPage}
	sa := middleware.NewSessionAuth(d.TM, d.UserSvc, d.Cfg.SecureCookies)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RequestLogger(log), middleware.Recover, middleware.HTTPMetrics)
	r.Use(middleware.RateLimit(d.Cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(sa.Load)

		// ---------- sessions ----------
		r.Post("/signup", users.Create)
		r.Post("/login", sessions.Login)
		r.Delete("/logout", sessions.Logout)

		// ---------- users ----------
		r.Get("/users/{id}", users.Show)
		r.With(middleware.RequireSelf("id")).Patch("/users/{id}", users.Update)
		r.With(middleware.RequireAdmin).Delete("/users/{id}", users.Delete)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)

			r.Get("/users", users.Index)

			// ---------- relationships ----------
			r.Get("/users/{id}/following", rels.Following)
			r.Get("/users/{id}/followers", rels.Followers)
			r.Post("/users/{id}/follow", rels.Follow)
			r.Delete("/users/{id}/follow", rels.Unfollow)

			// ---------- microposts ----------
			r.Get("/feed", feed.Show)
			r.Post("/microposts", posts.Create)
			r.Delete("/microposts/{id}", posts.Delete)
		})
	})

	return r
}
