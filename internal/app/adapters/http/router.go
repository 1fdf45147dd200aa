package http

import (
	"context"
	"errors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/acme/autocert"
	"log/slog"
	"net/http"
	"time"
	"twitchchat/internal/app/adapters/http/handlers"
	"twitchchat/internal/app/adapters/http/middlewares"
	"twitchchat/internal/app/infrastructure/config"
	"twitchchat/pkg/logger"
)

const (
	certCacheDir    = "certs"
	shutdownTimeout = 5 * time.Second
)

type Router struct {
	router      *gin.Engine
	handlers    *handlers.Handlers
	middlewares *middlewares.Middlewares

	log     logger.Logger
	manager *config.Manager
}

func NewRouter(log logger.Logger, manager *config.Manager, chat handlers.Chat, events handlers.Events) *Router {
	r := &Router{
		router:      gin.Default(),
		handlers:    handlers.New(log, chat, events, manager),
		middlewares: middlewares.New(),
		log:         log,
		manager:     manager,
	}
	cfg := manager.Get()

	pprofGroup := r.router.Group("/", gin.BasicAuth(gin.Accounts{
		"admin": cfg.App.AuthToken,
	}))
	pprof.Register(pprofGroup)

	r.router.GET("/metrics", gin.BasicAuth(gin.Accounts{
		"admin": cfg.App.AuthToken,
	}), gin.WrapH(promhttp.Handler()))

	r.router.GET("/health", r.handlers.HealthHandler)

	api := r.router.Group("/", r.middlewares.Auth(cfg.App.AuthToken))
	api.GET("/events", r.handlers.EventsHandler)
	api.GET("/channels/:channel", r.handlers.ChannelHandler)
	api.POST("/channels/:channel", r.handlers.JoinHandler)
	api.DELETE("/channels/:channel", r.handlers.PartHandler)
	api.POST("/channels/:channel/messages", r.handlers.SendHandler)

	return r
}

func (r *Router) Handler() http.Handler {
	return r.router
}

// Run serves until ctx is done. With cert_domains set it serves TLS using
// certificates from Let's Encrypt and answers ACME challenges on :80.
func (r *Router) Run(ctx context.Context) error {
	cfg := r.manager.Get()
	srv := r.newServer(cfg.HTTP.Address, r.router)

	var challenge *http.Server
	serve := srv.ListenAndServe
	if len(cfg.HTTP.CertDomains) > 0 {
		m := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(cfg.HTTP.CertDomains...),
			Cache:      autocert.DirCache(certCacheDir),
		}
		srv.TLSConfig = m.TLSConfig()
		serve = func() error { return srv.ListenAndServeTLS("", "") }

		challenge = r.newServer(":80", m.HTTPHandler(nil))
		go func() {
			if err := challenge.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				r.log.Error("ACME challenge server failed", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		r.log.Info("HTTP server started", slog.String("address", srv.Addr), slog.Bool("tls", srv.TLSConfig != nil))
		errCh <- serve()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if challenge != nil {
		_ = challenge.Shutdown(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	r.log.Info("HTTP server stopped")
	return nil
}

func (r *Router) newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
}
