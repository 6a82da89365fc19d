package server

import (
	"context"
	"net/http"

	"membership-bot/internal/handler"
	mw "membership-bot/internal/middleware"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

type Options struct {
	// ServerKey enables Midtrans signature verification when VerifySignature is set.
	ServerKey       string
	VerifySignature bool
	Metrics         http.Handler
}

type Server struct {
	echo           *echo.Echo
	webhookHandler *handler.WebhookHandler
	opts           Options
}

func NewServer(webhookHandler *handler.WebhookHandler, opts Options, log logrus.FieldLogger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.String(),
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("request failed")
				return nil
			}
			entry.Debug("request")
			return nil
		},
	}))
	e.Use(middleware.Recover())

	s := &Server{
		echo:           e,
		webhookHandler: webhookHandler,
		opts:           opts,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", handler.Health)
	if s.opts.Metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.opts.Metrics))
	}

	// -------- payment gateway notifications --------
	webhook := s.echo.Group("/webhook")
	if s.opts.VerifySignature {
		webhook.Use(mw.MidtransSignature(s.opts.ServerKey))
	}
	webhook.POST("", s.webhookHandler.MidtransNotification)
	webhook.POST("/midtrans", s.webhookHandler.MidtransNotification)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
