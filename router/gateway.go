package router

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/proxy"
	"github.com/sahilchouksey/learnhub/handlers"
	"github.com/sahilchouksey/learnhub/utils"
	"github.com/sahilchouksey/learnhub/utils/middleware"
	"github.com/sahilchouksey/learnhub/utils/response"
)

// Upstream is one backend service behind the gateway
type Upstream struct {
	Name   string
	Prefix string
	URL    string
}

// GatewayConfig configures the gateway routes
type GatewayConfig struct {
	Upstreams []Upstream
	// Guard enables the route-aware auth guard when non-nil
	Guard        *middleware.AuthMiddleware
	Security     middleware.SecurityConfig
	ReadyTimeout time.Duration
}

// DefaultUpstreams maps the public prefixes onto the three services
func DefaultUpstreams(userURL, lessonURL, achievementURL string) []Upstream {
	return []Upstream{
		{Name: "user", Prefix: "/users", URL: userURL},
		{Name: "lesson", Prefix: "/lessons", URL: lessonURL},
		{Name: "achievement", Prefix: "/achievements", URL: achievementURL},
	}
}

// SetupGatewayRoutes mounts the probes, the optional guard and one proxy per upstream
func SetupGatewayRoutes(app *fiber.App, cfg GatewayConfig) {
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 2 * time.Second
	}

	middleware.SetupSecurity(app, cfg.Security)

	app.Get("/healthz", handlers.HandleHealthz)
	app.Get("/readyz", readiness(cfg.Upstreams, cfg.ReadyTimeout))
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, nil))

	if cfg.Guard != nil {
		app.Use(cfg.Guard.RouteGuard())
	}

	for _, up := range cfg.Upstreams {
		handler := forward(up)
		app.All(up.Prefix, handler)
		app.All(up.Prefix+"/*", handler)
	}
}

// UpstreamTarget rewrites a gateway path onto the upstream: the prefix is stripped, the query kept
func UpstreamTarget(up Upstream, path, rawQuery string) string {
	rest := strings.TrimPrefix(path, up.Prefix)
	if rest == "" {
		rest = "/"
	}

	target := strings.TrimSuffix(up.URL, "/") + rest
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	return target
}

func forward(up Upstream) fiber.Handler {
	return func(c *fiber.Ctx) error {
		target := UpstreamTarget(up, c.Path(), string(c.Request().URI().QueryString()))

		if err := proxy.Do(c, target); err != nil {
			log.Errorw("proxy request failed", "upstream", up.Name, "target", target, "error", err)
			return response.Error(c, fiber.StatusBadGateway, "Upstream service unavailable")
		}
		// Drop the upstream's server header
		c.Response().Header.Del(fiber.HeaderServer)
		return nil
	}
}

func readiness(upstreams []Upstream, timeout time.Duration) fiber.Handler {
	client := resty.New().SetTimeout(timeout)

	return func(c *fiber.Ctx) error {
		var (
			mu        sync.Mutex
			wg        sync.WaitGroup
			unhealthy []string
		)

		for _, up := range upstreams {
			wg.Add(1)
			go func(up Upstream) {
				defer wg.Done()

				resp, err := client.R().
					SetContext(c.UserContext()).
					Get(strings.TrimSuffix(up.URL, "/") + "/healthz")
				if err == nil && resp.IsSuccess() {
					return
				}
				if err != nil {
					log.Warnw("upstream not ready", "upstream", up.Name, "error", err)
				} else {
					log.Warnw("upstream not ready", "upstream", up.Name, "status", resp.StatusCode())
				}

				mu.Lock()
				unhealthy = append(unhealthy, up.Name)
				mu.Unlock()
			}(up)
		}
		wg.Wait()

		if len(unhealthy) > 0 {
			sort.Strings(unhealthy)
			return response.ErrorWithDescription(c, fiber.StatusServiceUnavailable,
				"Upstreams unavailable", strings.Join(unhealthy, ", "))
		}
		return c.JSON(fiber.Map{"ok": true})
	}
}
