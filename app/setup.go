package app

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/learnhub/api"
	"github.com/sahilchouksey/learnhub/config"
	"github.com/sahilchouksey/learnhub/database"
	achievement_handlers "github.com/sahilchouksey/learnhub/handlers/achievement"
	lesson_handlers "github.com/sahilchouksey/learnhub/handlers/lesson"
	user_handlers "github.com/sahilchouksey/learnhub/handlers/user"
	"github.com/sahilchouksey/learnhub/messaging"
	"github.com/sahilchouksey/learnhub/router"
	"github.com/sahilchouksey/learnhub/services"
	"github.com/sahilchouksey/learnhub/services/rules"
	"github.com/sahilchouksey/learnhub/utils/auth"
	"github.com/sahilchouksey/learnhub/utils/cache"
	"github.com/sahilchouksey/learnhub/utils/middleware"
)

// Roles the binary can run as
const (
	ServiceGateway           = "gateway"
	ServiceUser              = "user"
	ServiceLesson            = "lesson"
	ServiceAchievement       = "achievement"
	ServiceAchievementWorker = "achievement-worker"
)

const (
	shutdownTimeout = 10 * time.Second
	redisNamespace  = "learnhub"
)

// SetupAndRunServer runs one role until SIGINT/SIGTERM. An empty service falls back to the SERVICE env variable.
func SetupAndRunServer(service string) error {
	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	env, err := config.Get()
	if err != nil {
		return err
	}

	if service == "" {
		service = env.SERVICE
	}
	service = strings.ToLower(strings.TrimSpace(service))

	setLogLevel(env.LOG_LEVEL)

	switch service {
	case ServiceGateway:
		return runGateway(env)
	case ServiceUser:
		return runUser(env)
	case ServiceLesson:
		return runLesson(env)
	case ServiceAchievement:
		return runAchievement(env)
	case ServiceAchievementWorker:
		return runAchievementWorker(env)
	case "":
		return errors.New("no service given: pass one of gateway, user, lesson, achievement, achievement-worker or set SERVICE")
	}
	return fmt.Errorf("unknown service %q", service)
}

func setLogLevel(level string) {
	switch strings.ToLower(level) {
	case "trace":
		fiberlog.SetLevel(fiberlog.LevelTrace)
	case "debug":
		fiberlog.SetLevel(fiberlog.LevelDebug)
	case "warn":
		fiberlog.SetLevel(fiberlog.LevelWarn)
	case "error":
		fiberlog.SetLevel(fiberlog.LevelError)
	default:
		fiberlog.SetLevel(fiberlog.LevelInfo)
	}
}

func securityConfig(env *config.EnvironmentVariable) middleware.SecurityConfig {
	return middleware.SecurityConfig{
		AllowedOrigins:    env.ALLOWED_ORIGINS,
		RateLimitRequests: env.RATE_LIMIT_MAX,
		RateLimitWindow:   env.RATE_LIMIT_WINDOW,
	}
}

func newJWTManager(env *config.EnvironmentVariable) (*auth.JWTManager, error) {
	if env.JWT_SECRET == "" {
		return nil, errors.New("JWT_SECRET environment variable is not set")
	}
	return auth.NewJWTManager(auth.JWTConfig{
		Secret: env.JWT_SECRET,
		Expiry: env.JWT_EXPIRY,
		Issuer: env.JWT_ISSUER,
	}), nil
}

// connectRedis returns nil when Redis is not configured or unreachable; callers degrade without it
func connectRedis(env *config.EnvironmentVariable) *cache.RedisCache {
	if env.REDIS_URL == "" {
		fiberlog.Info("REDIS_URL not set, running without Redis")
		return nil
	}
	redisCache, err := cache.NewRedisCache(env.REDIS_URL, redisNamespace)
	if err != nil {
		fiberlog.Warnw("failed to connect to Redis, running without it", "error", err)
		return nil
	}
	return redisCache
}

// openStore connects and migrates only the tables the service owns
func openStore(env *config.EnvironmentVariable, models []interface{}) (*database.GORMStore, error) {
	store, err := database.StartGORM(env)
	if err != nil {
		log.Println("Check whether the Postgres is running or not")
		return nil, err
	}

	if err := store.Init(models...); err != nil {
		log.Println("Failed to initialize database tables")
		store.Close()
		return nil, err
	}
	return store, nil
}

func connectBus(env *config.EnvironmentVariable, name string) (*messaging.NATSBus, error) {
	return messaging.ConnectNATS(messaging.NATSConfig{
		URL:  env.NATS_URL,
		Name: name,
	})
}

// serviceAuth builds the JWT manager, the optional blacklist and the auth middleware
func serviceAuth(env *config.EnvironmentVariable, redisCache *cache.RedisCache) (*auth.JWTManager, *auth.BlacklistService, *middleware.AuthMiddleware, error) {
	jwtManager, err := newJWTManager(env)
	if err != nil {
		return nil, nil, nil, err
	}

	var blacklist *auth.BlacklistService
	if redisCache != nil {
		blacklist = auth.NewBlacklistService(redisCache)
	}
	return jwtManager, blacklist, middleware.NewAuthMiddleware(jwtManager, blacklist), nil
}

func runUser(env *config.EnvironmentVariable) error {
	store, err := openStore(env, database.UserModels)
	if err != nil {
		return err
	}
	redisCache := connectRedis(env)

	jwtManager, blacklist, authMiddleware, err := serviceAuth(env, redisCache)
	if err != nil {
		store.Close()
		return err
	}

	var bruteForce *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForce = middleware.NewBruteForceProtection(redisCache)
	}

	server := api.NewAPIServer(env.ListenAddress(3001), "user-service")
	handler := user_handlers.NewUserHandler(services.NewUserService(store.DB(), jwtManager, 0), blacklist, bruteForce)
	router.SetupUserRoutes(server.GetEngine(), router.ServiceDeps{
		Store:    store,
		Auth:     authMiddleware,
		Security: securityConfig(env),
	}, handler, bruteForce)

	return serve(server, func() {
		closeRedis(redisCache)
		store.Close()
	})
}

func runLesson(env *config.EnvironmentVariable) error {
	store, err := openStore(env, database.LessonModels)
	if err != nil {
		return err
	}
	redisCache := connectRedis(env)

	_, _, authMiddleware, err := serviceAuth(env, redisCache)
	if err != nil {
		store.Close()
		return err
	}

	bus, err := connectBus(env, "lesson-service")
	if err != nil {
		store.Close()
		return err
	}

	server := api.NewAPIServer(env.ListenAddress(3002), "lesson-service")
	handler := lesson_handlers.NewLessonHandler(services.NewLessonService(store.DB(), bus))
	router.SetupLessonRoutes(server.GetEngine(), router.ServiceDeps{
		Store:    store,
		Auth:     authMiddleware,
		Security: securityConfig(env),
	}, handler)

	return serve(server, func() {
		if err := bus.Close(); err != nil {
			fiberlog.Warnw("failed to close bus", "error", err)
		}
		closeRedis(redisCache)
		store.Close()
	})
}

func runAchievement(env *config.EnvironmentVariable) error {
	store, err := openStore(env, database.AchievementModels)
	if err != nil {
		return err
	}
	redisCache := connectRedis(env)

	_, _, authMiddleware, err := serviceAuth(env, redisCache)
	if err != nil {
		store.Close()
		return err
	}

	// The HTTP service only reads and edits definitions; awarding happens in the worker
	svc := services.NewAchievementService(store.DB(), rules.NewRuleSet(env.SILVER_THRESHOLD), nil, redisCache)

	server := api.NewAPIServer(env.ListenAddress(3003), "achievement-service")
	router.SetupAchievementRoutes(server.GetEngine(), router.ServiceDeps{
		Store:    store,
		Auth:     authMiddleware,
		Security: securityConfig(env),
	}, achievement_handlers.NewAchievementHandler(svc))

	return serve(server, func() {
		closeRedis(redisCache)
		store.Close()
	})
}

func runGateway(env *config.EnvironmentVariable) error {
	var guard *middleware.AuthMiddleware
	var redisCache *cache.RedisCache
	if env.GATEWAY_AUTH_GUARD {
		redisCache = connectRedis(env)
		var err error
		if _, _, guard, err = serviceAuth(env, redisCache); err != nil {
			return err
		}
	}

	server := api.NewAPIServer(env.ListenAddress(3000), "gateway")
	router.SetupGatewayRoutes(server.GetEngine(), router.GatewayConfig{
		Upstreams: router.DefaultUpstreams(env.USER_SVC_URL, env.LESSON_SVC_URL, env.ACHIEVEMENT_SVC_URL),
		Guard:     guard,
		Security:  securityConfig(env),
	})

	return serve(server, func() { closeRedis(redisCache) })
}

func closeRedis(redisCache *cache.RedisCache) {
	if redisCache == nil {
		return
	}
	if err := redisCache.Close(); err != nil {
		fiberlog.Warnw("failed to close Redis", "error", err)
	}
}

// serve runs the server until it fails or a shutdown signal arrives, then runs cleanup
func serve(server *api.APIServer, cleanup func()) error {
	defer cleanup()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		fiberlog.Infow("shutdown signal received", "signal", sig.String())
	}

	if err := server.Shutdown(shutdownTimeout); err != nil {
		return err
	}
	return <-errCh
}

// waitForSignal blocks until SIGINT or SIGTERM
func waitForSignal() os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	return <-sigCh
}
