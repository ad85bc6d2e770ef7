package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"ssfatpf-backend-go/internal/config"
	"ssfatpf-backend-go/internal/content"
	"ssfatpf-backend-go/internal/forms"
	"ssfatpf-backend-go/internal/models"
	"ssfatpf-backend-go/internal/services"
	"ssfatpf-backend-go/internal/storage"
	"ssfatpf-backend-go/internal/store"
)

type Server struct {
	Config    config.Config
	Catalog   *content.Catalog
	Forms     *forms.Registry
	Events    *services.EventTracker
	Donations *services.DonationTracker
	Blog      *services.BlogService
	Media     *services.MediaService
	Identity  *services.Identity
	Dashboard *services.Dashboard
	Visits    store.Visits

	// mediaFiles serves filesystem-stored objects; nil for hosted storage.
	mediaFiles http.Handler
}

func NewServer(cfg config.Config, backend store.Backend, objects storage.ObjectStore, catalog *content.Catalog) *Server {
	tokens := services.TokenService{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  time.Duration(cfg.AccessTTLSeconds) * time.Second,
		RefreshTTL: time.Duration(cfg.RefreshTTLSeconds) * time.Second,
	}
	events := services.NewEventTracker(backend)
	donations := services.NewDonationTracker(backend)
	s := &Server{
		Config:    cfg,
		Catalog:   catalog,
		Forms:     forms.NewRegistry(backend),
		Events:    events,
		Donations: donations,
		Blog:      services.NewBlogService(backend, backend),
		Media:     services.NewMediaService(backend, backend, events, objects),
		Identity:  services.NewIdentity(backend, tokens),
		Dashboard: services.NewDashboard(events, donations, cfg.MediaStoragePath),
		Visits:    backend,
	}
	if files, ok := objects.(*storage.FileStore); ok {
		s.mediaFiles = http.StripPrefix("/media/", http.FileServer(http.Dir(files.BasePath())))
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	limited := RateLimit(s.Config.RateLimitPerMinute, time.Minute)

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(auth chi.Router) {
			auth.With(limited).Post("/login", s.Login)
			auth.Post("/refresh", s.Refresh)
			auth.Post("/logout", s.Logout)
		})
		api.With(WithAuth(s.Identity)).Get("/me", s.Me)

		api.Route("/public", func(pub chi.Router) {
			pub.Get("/content", s.SiteContent)
			pub.Get("/content/{section}", s.SiteContentSection)
			pub.Get("/search", s.PublicSearch)
			pub.Get("/impact", s.DonationImpact)

			pub.Get("/forms/{kind}", s.FormDefinition)
			pub.With(limited).Post("/forms/{kind}", s.SubmitForm)
			pub.With(limited).Post("/contact", s.SubmitContact)

			pub.Get("/events", s.ListEvents)
			pub.Get("/events/stats", s.EventStats)
			pub.With(limited).Post("/events", s.SubmitEvent)

			pub.Get("/donations/stats", s.DonationStats)
			pub.With(limited).Post("/donations", s.SubmitDonation)
			pub.Get("/campaigns", s.ListCampaigns)

			pub.Get("/posts", s.PublicPosts)
			pub.Get("/posts/{slug}", s.PublicPost)

			pub.Post("/visits", s.TrackVisit)
			pub.Get("/visits/count", s.VisitCount)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(WithAuth(s.Identity))
			admin.Use(RequireWriteAccess)
			admin.Get("/dashboard", s.DashboardOverview)

			admin.Route("/events", func(events chi.Router) {
				events.Get("/", s.AdminListEvents)
				events.Post("/", s.AdminCreateEvent)
				events.Get("/{eventId}", s.AdminGetEvent)
				events.Put("/{eventId}", s.AdminUpdateEvent)
				events.Delete("/{eventId}", s.AdminDeleteEvent)
				events.Get("/{eventId}/media", s.EventMedia)
			})
			admin.Post("/media/uploads", s.UploadEventMedia)
			admin.Delete("/media/{mediaId}", s.DeleteMedia)

			admin.Route("/posts", func(posts chi.Router) {
				posts.Get("/", s.AdminListPosts)
				posts.Post("/", s.AdminCreatePost)
				posts.Get("/template", s.PostTemplate)
				posts.Get("/{postId}", s.AdminGetPost)
				posts.Put("/{postId}", s.AdminUpdatePost)
				posts.Put("/{postId}/status", s.AdminSetPostStatus)
				posts.Delete("/{postId}", s.AdminDeletePost)
			})

			admin.Get("/applications/{kind}", s.ListApplications)
			admin.Put("/applications/{kind}/{id}/status", s.SetApplicationStatus)
			admin.Get("/contact", s.ListContacts)
			admin.Put("/contact/{id}/status", s.SetContactStatus)

			admin.Get("/campaigns", s.ListCampaigns)
			admin.Post("/campaigns", s.CreateCampaign)

			admin.Route("/profiles", func(profiles chi.Router) {
				profiles.Use(RequireRole(models.RoleSuperAdmin))
				profiles.Get("/", s.ListProfiles)
				profiles.Put("/{userId}/role", s.SetProfileRole)
			})
		})
	})

	r.Get("/ws/dashboard", s.DashboardSocket)
	if s.mediaFiles != nil {
		r.Get("/media/*", s.mediaFiles.ServeHTTP)
	}
	return r
}
