package app

import (
	"time"

	"github.com/dmitrymomot/flowpilot/auth"
	"github.com/dmitrymomot/flowpilot/content"
	"github.com/dmitrymomot/flowpilot/core/cookie"
	"github.com/dmitrymomot/flowpilot/core/logger"
	"github.com/dmitrymomot/flowpilot/integration/database/pg"
	"github.com/dmitrymomot/flowpilot/integration/database/redis"
)

// Config aggregates all service configuration, loaded from environment
// variables in one pass.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// ShutdownTimeout bounds graceful shutdown on termination signals.
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Logger  logger.Config
	Cookie  cookie.Config
	Auth    auth.Config
	PG      pg.Config
	Redis   redis.Config
	Content content.Config
}
