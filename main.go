package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vault/infrastructure/clients/vault"
	"vault/infrastructure/configuration"
	"vault/infrastructure/logger"
	"vault/infrastructure/realtime"
	httpHandler "vault/interfaces/http"
	"vault/interfaces/middleware"
	"vault/server"
	"vault/usecase"

	"github.com/gin-gonic/gin"

	"golang.org/x/sync/errgroup"
)

const janitorInterval = time.Minute

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	// Load env from files (non-destructive; OS env still has precedence)
	if loaded := configuration.LoadEnvFromFile("config.env", ".env"); len(loaded) > 0 {
		logger.GetLogger().WithField("files", loaded).Info("Env files loaded")
		if err := configuration.Reload(); err != nil {
			logger.GetLogger().WithField("error", err).Error("Viper unable to reload configuration")
		}
	}

	cfg := configuration.C
	gin.SetMode(cfg.App.GinMode)
	logger.GetLogger().WithFields(map[string]interface{}{
		"apiURL":     cfg.Backend.APIURL,
		"timeout":    cfg.Backend.Timeout.String(),
		"sessionTTL": cfg.Session.TTL.String(),
	}).Info("Loaded configuration")

	gateway := vault.NewVaultClient(vault.Config{
		BaseURL: cfg.Backend.APIURL,
		Timeout: cfg.Backend.Timeout,
	})

	hub := realtime.NewStateHub()
	sessions := usecase.NewSessionUsecase(ctx, gateway, cfg.Session.TTL).
		WithBroadcaster(func(sessionID string, s usecase.ViewState) {
			hub.Broadcast(sessionID, toStateEvent(s))
		}).
		WithKeepAlive(func(sessionID string) bool {
			return hub.Subscribers(sessionID) > 0
		})
	defer sessions.Close()
	hub.WithSnapshot(sessionSnapshot(sessions))

	videoHandler := httpHandler.NewVideoHandler(httpHandler.DefaultMountWait, time.Local)
	healthHandler := httpHandler.NewHealthHandler()

	router := server.InitiateRouter(videoHandler, healthHandler, sessions, hub, server.RouterOptions{
		Session: middleware.SessionOptions{
			CookieName: cfg.Session.CookieName,
			TTL:        cfg.Session.TTL,
			Secure:     cfg.Session.Secure,
		},
		AllowOrigins: cfg.Cors.AllowOrigins,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// SSE streams end when ctx is cancelled so Shutdown does not wait on them.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.GetLogger().WithField("port", cfg.App.Port).Info("Starting application")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := sessions.RunJanitor(gctx, janitorInterval); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-gctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server shutdown failed")
	}

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
	logger.GetLogger().Info("Application stopped")
}

func toStateEvent(s usecase.ViewState) realtime.StateEvent {
	return realtime.StateEvent{
		Type:       "state",
		Phase:      string(s.Phase),
		Loading:    s.Loading(),
		VideoCount: len(s.Videos),
		Expanded:   s.ExpandedVideoID,
		Error:      s.LastError,
	}
}

func sessionSnapshot(sessions usecase.ISessionUsecase) realtime.SnapshotFunc {
	return func(sessionID string) (realtime.StateEvent, bool) {
		sess, ok := sessions.Lookup(sessionID)
		if !ok {
			return realtime.StateEvent{}, false
		}
		return toStateEvent(sess.Controller.State()), true
	}
}
