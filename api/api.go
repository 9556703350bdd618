package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/learnhub/utils/response"
)

type APIServer struct {
	app           *fiber.App
	listenAddress string
	name          string
}

func NewAPIServer(listenAddress, name string) *APIServer {
	return &APIServer{
		app: fiber.New(fiber.Config{
			AppName:               name,
			ErrorHandler:          response.ErrorHandler,
			DisableStartupMessage: true,
			ReadTimeout:           15 * time.Second,
			WriteTimeout:          15 * time.Second,
		}),
		listenAddress: listenAddress,
		name:          name,
	}
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

// Run blocks until the server stops. A graceful Shutdown makes it return nil.
func (s *APIServer) Run() error {
	log.Infow("Starting API Server", "service", s.name, "address", s.listenAddress)
	return s.app.Listen(s.listenAddress)
}

// Shutdown stops accepting connections and waits up to timeout for in-flight requests
func (s *APIServer) Shutdown(timeout time.Duration) error {
	log.Infow("Shutting down API Server", "service", s.name)
	return s.app.ShutdownWithTimeout(timeout)
}
