package rest

import (
	"net/http"

	"chirper-backend/application/queries"
	"chirper-backend/application/services"
	"chirper-backend/interfaces/http/rest/handlers"
	"chirper-backend/interfaces/http/rest/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	tweets        *services.TweetService
	relationships *services.RelationshipService
	timeline      *queries.TimelineQuery
	jwtSecret     string
	jwtIssuer     string
	logger        *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	tweets *services.TweetService,
	relationships *services.RelationshipService,
	timeline *queries.TimelineQuery,
	jwtSecret string,
	jwtIssuer string,
	logger *zap.Logger,
) *Router {
	return &Router{
		tweets:        tweets,
		relationships: relationships,
		timeline:      timeline,
		jwtSecret:     jwtSecret,
		jwtIssuer:     jwtIssuer,
		logger:        logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "https://*.chirper.dev"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	router.Get("/health", rt.healthCheck)

	// API v1 routes
	router.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.jwtSecret, rt.jwtIssuer, rt.logger))

		// Tweet endpoints
		r.Route("/tweets", func(r chi.Router) {
			tweetHandler := handlers.NewTweetHandler(rt.tweets, rt.logger)
			r.Post("/", tweetHandler.Create)
			r.Post("/{tweetID}/retweet", tweetHandler.Retweet)
			r.Delete("/{tweetID}/retweet", tweetHandler.Unretweet)
			r.Post("/{tweetID}/reply", tweetHandler.Reply)
		})

		// Follow endpoints
		r.Route("/follows", func(r chi.Router) {
			relationshipHandler := handlers.NewRelationshipHandler(rt.relationships, rt.logger)
			r.Post("/{userID}", relationshipHandler.Follow)
			r.Delete("/{userID}", relationshipHandler.Unfollow)
		})

		// Home timeline
		r.Get("/timeline", handlers.NewTimelineHandler(rt.timeline, rt.logger).Get)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
