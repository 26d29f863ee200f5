package router

import (
	"context"
	"fmt"

	"github.com/anonto42/nano-midea/feedengine/internal/engagement"
	"github.com/anonto42/nano-midea/feedengine/internal/feed"
	"github.com/anonto42/nano-midea/feedengine/internal/handlers"
	"github.com/anonto42/nano-midea/feedengine/internal/interactions"
	"github.com/anonto42/nano-midea/feedengine/internal/metrics"
	"github.com/anonto42/nano-midea/feedengine/internal/middleware"
	"github.com/anonto42/nano-midea/feedengine/internal/notify"
	"github.com/anonto42/nano-midea/feedengine/internal/repositories"
	"github.com/anonto42/nano-midea/feedengine/internal/validators"
	"github.com/anonto42/nano-midea/feedengine/pkg/config"
	"github.com/anonto42/nano-midea/feedengine/pkg/logging"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupStore migrates the relational schema and builds the store, keeping
// posts in MongoDB when database.post_store is "mongo".
func SetupStore(ctx context.Context, cfg config.DatabaseConfig, pgdb *gorm.DB, mgClient *mongo.Client) (*repositories.Store, error) {
	if err := repositories.AutoMigrate(pgdb, cfg.PostStore != config.PostStoreMongo); err != nil {
		return nil, fmt.Errorf("failed to auto migrate models: %w", err)
	}
	logging.Info().Msg("PostgreSQL auto-migrations completed")

	var posts repositories.PostRepository
	if cfg.PostStore == config.PostStoreMongo {
		if mgClient == nil {
			return nil, fmt.Errorf("post_store %q requires a MongoDB connection", cfg.PostStore)
		}
		mongoPosts := repositories.NewMongoPostRepository(mgClient.Database(cfg.MongoDatabase), pgdb)
		if err := mongoPosts.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("failed to create post indexes: %w", err)
		}
		posts = mongoPosts
	}
	logging.Info().Str("post_store", cfg.PostStore).Msg("store ready")
	return repositories.NewStore(pgdb, posts), nil
}

// SetupRoutes configures all application routes and injects dependencies.
// firebaseVerifier may be nil.
func SetupRoutes(e *echo.Echo, cfg *config.Config, store *repositories.Store, firebaseVerifier middleware.IDTokenVerifier) {
	e.Validator = validators.NewValidator()

	// --- Engine ---
	timeout := cfg.Database.StoreTimeout
	aggregator := engagement.NewAggregator(store.Likes, store.Comments)
	assembler := feed.NewAssembler(store, aggregator, cfg.Feed, timeout)
	inbox := notify.NewInbox(store, cfg.Feed, timeout)
	svc := interactions.NewService(store, notify.NewFanOut(cfg.Notifications), assembler, cfg)

	// --- Token resolvers ---
	issuer := middleware.NewJWTIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	resolvers := []middleware.TokenResolver{issuer}
	if firebaseVerifier != nil {
		resolvers = append(resolvers, middleware.NewFirebaseResolver(firebaseVerifier, store.Credentials))
	}

	e.GET("/health", handlers.HealthCheck)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	handlers.NewAuthHandler(svc, store, issuer, firebaseVerifier).RegisterAuthRoutes(authGroup)

	// --- Reads: anonymous allowed, viewer flags when signed in ---
	public := e.Group("/api/v1", middleware.OptionalAuthMiddleware(resolvers...))
	// --- Mutations and personal data: token required ---
	api := e.Group("/api/v1", middleware.JWTAuthMiddleware(resolvers...))

	userHandler := handlers.NewUserHandler(svc)
	userHandler.RegisterProfileRoutes(api)
	userHandler.RegisterUserRoutes(public)

	handlers.NewFollowHandler(svc).RegisterFollowRoutes(api)

	postHandler := handlers.NewPostHandler(svc)
	postHandler.RegisterPostRoutes(api)
	postHandler.RegisterPublicPostRoutes(public)

	handlers.NewFeedHandler(assembler).RegisterFeedRoutes(public)
	handlers.NewLikeHandler(svc).RegisterLikeRoutes(api)

	commentHandler := handlers.NewCommentHandler(svc)
	commentHandler.RegisterCommentRoutes(api)
	commentHandler.RegisterPublicCommentRoutes(public)

	handlers.NewNotificationHandler(inbox).RegisterNotificationRoutes(api)

	logging.Info().Int("routes", len(e.Routes())).Msg("All routes configured")
}

// NewMetricsServer returns a separate echo instance serving /metrics.
func NewMetricsServer() *echo.Echo {
	m := echo.New()
	m.HideBanner = true
	m.HidePort = true
	m.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	return m
}
