package config

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/anonto42/kdiary/backend/pkg/logger"
)

// SetupMiddleware installs the request logger, panic recovery and CORS. They
// run before routing so pre-routing middleware such as the admin gate is
// logged and recovered too.
func SetupMiddleware(e *echo.Echo, log logger.Logger) {
	httpLog := log.WithComponent("http").Slog()

	e.Pre(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,

		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				level = slog.LevelWarn
				if v.Status >= 500 {
					level = slog.LevelError
				}
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			httpLog.LogAttrs(context.Background(), level, "request", attrs...)
			return nil
		},
	}))
	e.Pre(middleware.Recover())
	e.Pre(middleware.CORS())
}
