package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/timopomer/splendor-ai/internal/auth"
	"github.com/timopomer/splendor-ai/internal/config"
	"github.com/timopomer/splendor-ai/internal/httpapi"
	"github.com/timopomer/splendor-ai/internal/policy"
	"github.com/timopomer/splendor-ai/internal/room"
	"github.com/timopomer/splendor-ai/internal/store"
)

func main() {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	} else {
		log.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
	}

	issuer, err := auth.NewIssuer(cfg.TokenSecret)
	if err != nil {
		log.WithError(err).Fatal("failed to build token issuer")
	}
	if cfg.TokenSecret == "" {
		log.Warn("TOKEN_SECRET unset, seat tokens will not survive a restart")
	}

	mgr := room.NewManager(issuer, policy.Factory{LearnedURL: cfg.PolicyURL}, cfg.BotTimeout, log)

	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		results, err := store.Open(ctx, cfg.DatabaseURL, log)
		cancel()
		if err != nil {
			log.WithError(err).Fatal("failed to open results store")
		}
		defer results.Close()
		mgr.SetOnGameEnd(results.RecordGame)
		log.Info("results store enabled")
	} else {
		log.Info("DATABASE_URL unset, finished games will not be recorded")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(mgr, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.WithField("signal", sig.String()).Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Error("shutdown did not complete cleanly")
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server exited")
		}
	}
}
