package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/samber/do"

	"ideahub/microservices/projects-service/cache"
	"ideahub/microservices/projects-service/config"
	"ideahub/microservices/projects-service/events"
	"ideahub/microservices/projects-service/handlers"
	"ideahub/microservices/projects-service/logging"
	"ideahub/microservices/projects-service/services"
	"ideahub/microservices/projects-service/storage"
	"ideahub/microservices/projects-service/store"
	"ideahub/microservices/projects-service/utils"
)

const (
	connectTimeout = 10 * time.Second
	breakerTimeout = 30 * time.Second
	cachePrefix    = "ideahub:"
)

// BuildContainer registers every backend, service and the HTTP router.
// Backends are chosen from cfg; nothing connects until first invoked.
func BuildContainer(cfg *config.Config) *do.Injector {
	inj := do.New()

	do.ProvideValue(inj, cfg)

	// Document store
	do.Provide(inj, func(i *do.Injector) (store.DocumentStore, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.StoreDriver == config.DriverMemory {
			logging.Logger.Warn("Event ID: STORE_MEMORY, Description: Using in-memory document store; data is lost on restart")
			return store.NewMemoryStore(), nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		s, err := store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureIndexes(ctx); err != nil {
			logging.Logger.Warnf("Event ID: MONGO_INDEX_FAILED, Description: %v", err)
		}
		logging.Logger.Infof("Event ID: MONGO_CONNECTED, Description: Connected to database %s", cfg.MongoDBName)
		return s, nil
	})

	// Blob storage
	do.Provide(inj, func(i *do.Injector) (storage.BlobStore, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.BlobDriver == config.DriverMemory {
			logging.Logger.Warn("Event ID: BLOB_MEMORY, Description: Using in-memory blob storage")
			return storage.NewMemoryStore("http://localhost:" + cfg.ServerPort + "/blobs"), nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		s3, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicBaseURL:   cfg.S3PublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
		return storage.NewBreakerStore(s3, "s3-uploads", breakerTimeout), nil
	})

	// Cache
	do.Provide(inj, func(i *do.Injector) (cache.Cache, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.RedisAddr == "" {
			return cache.NewMemoryCache(), nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		rdb, err := cache.NewRedisClient(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		logging.Logger.Infof("Event ID: REDIS_CONNECTED, Description: Connected to %s", cfg.RedisAddr)
		return cache.NewRedisCache(rdb, cachePrefix), nil
	})

	// Event publisher
	do.Provide(inj, func(i *do.Injector) (events.Publisher, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.AMQPURL == "" {
			return events.NoopPublisher{}, nil
		}
		pub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, err
		}
		logging.Logger.Infof("Event ID: AMQP_CONNECTED, Description: Publishing to exchange %s", cfg.AMQPExchange)
		return pub, nil
	})

	do.Provide(inj, func(i *do.Injector) (*utils.TokenIssuer, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return utils.NewTokenIssuer(cfg.JWTSecret, cfg.AdminSessionTTL), nil
	})

	// Services
	do.Provide(inj, func(i *do.Injector) (*services.ProjectService, error) {
		return services.NewProjectService(
			do.MustInvoke[store.DocumentStore](i),
			do.MustInvoke[storage.BlobStore](i),
			do.MustInvoke[cache.Cache](i),
			do.MustInvoke[events.Publisher](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (*services.SuggestionService, error) {
		return services.NewSuggestionService(
			do.MustInvoke[store.DocumentStore](i),
			do.MustInvoke[events.Publisher](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (*services.AdminService, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return services.NewAdminService(
			do.MustInvoke[store.DocumentStore](i),
			do.MustInvoke[cache.Cache](i),
			do.MustInvoke[*utils.TokenIssuer](i),
			cfg.AdminMaxAttempts,
			cfg.AdminAttemptWindow,
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (*services.AnalyticsService, error) {
		return services.NewAnalyticsService(
			do.MustInvoke[store.DocumentStore](i),
			do.MustInvoke[*services.ProjectService](i),
		), nil
	})

	// Router
	do.Provide(inj, func(i *do.Injector) (http.Handler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		admin := do.MustInvoke[*services.AdminService](i)
		h := handlers.Handlers{
			Projects:    handlers.NewProjectHandler(do.MustInvoke[*services.ProjectService](i)),
			Suggestions: handlers.NewSuggestionHandler(do.MustInvoke[*services.SuggestionService](i)),
			Admin:       handlers.NewAdminHandler(admin),
			Analytics:   handlers.NewAnalyticsHandler(do.MustInvoke[*services.AnalyticsService](i)),
			Health:      handlers.NewHealthHandler(do.MustInvoke[store.DocumentStore](i)),
		}
		if blobs, ok := do.MustInvoke[storage.BlobStore](i).(*storage.MemoryStore); ok {
			h.Blobs = handlers.NewBlobHandler(blobs)
		}
		return handlers.NewRouter(h, admin, cfg.CORSOrigins), nil
	})

	return inj
}

// SeedAdmin writes the admin credentials from the environment when the
// credentials document is missing.
func SeedAdmin(ctx context.Context, inj *do.Injector) error {
	cfg := do.MustInvoke[*config.Config](inj)
	if cfg.AdminPassword1 == "" || cfg.AdminPassword2 == "" {
		return nil
	}
	admin, err := do.Invoke[*services.AdminService](inj)
	if err != nil {
		return err
	}
	created, err := admin.SeedCredentials(ctx, cfg.AdminPassword1, cfg.AdminPassword2)
	if err != nil {
		return err
	}
	if created {
		logging.Logger.Info("Event ID: ADMIN_SEEDED, Description: Admin credentials document created from environment")
	}
	return nil
}

// Shutdown closes the backends that were started.
func Shutdown(ctx context.Context, inj *do.Injector) {
	if s, err := do.Invoke[store.DocumentStore](inj); err == nil {
		if err := s.Close(ctx); err != nil {
			logging.Logger.Warnf("Event ID: STORE_CLOSE_FAILED, Description: %v", err)
		}
	}
	if pub, err := do.Invoke[events.Publisher](inj); err == nil {
		if err := pub.Close(); err != nil {
			logging.Logger.Warnf("Event ID: PUBLISHER_CLOSE_FAILED, Description: %v", err)
		}
	}
}
