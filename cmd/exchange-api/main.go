// Package main runs the exchange data API. Database credentials and the API
// key come from the secret store (environment first, then the secrets file),
// never from flags or config.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"exchangesync/internal/app/repository"
	"exchangesync/internal/app/secrets"
	"exchangesync/internal/app/server"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	store := secrets.NewStore(envOr("CONFIG_DIR", "config"))

	apiKey, err := store.Get(secrets.KeyAPIKey)
	if err != nil {
		logrus.Fatalf("loading API key: %v", err)
	}
	dbCfg, err := loadDBConfig(store)
	if err != nil {
		logrus.Fatalf("loading database credentials: %v", err)
	}

	db, err := repository.Open(dbCfg)
	if err != nil {
		logrus.Fatalf("connecting to database: %v", err)
	}
	defer db.Close()
	logrus.WithFields(logrus.Fields{
		"host":    dbCfg.Host,
		"port":    dbCfg.Port,
		"api_key": secrets.Preview(apiKey),
	}).Info("credentials loaded")

	srv := &http.Server{
		Addr:    ":" + envOr("PORT", "8080"),
		Handler: server.New(repository.NewRepository(db), apiKey).Handler(),
	}

	go func() {
		logrus.WithFields(logrus.Fields{"addr": srv.Addr}).Info("API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logrus.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("shutdown: %v", err)
	}
}

func loadDBConfig(store *secrets.Store) (repository.Config, error) {
	cfg := repository.Config{Driver: os.Getenv("DB_DRIVER")}
	for _, item := range []struct {
		key  string
		dest *string
	}{
		{secrets.KeyDBHost, &cfg.Host},
		{secrets.KeyDBPort, &cfg.Port},
		{secrets.KeyDBName, &cfg.DBName},
		{secrets.KeyDBUser, &cfg.Username},
		{secrets.KeyDBPassword, &cfg.Password},
	} {
		v, err := store.Get(item.key)
		if err != nil {
			return repository.Config{}, err
		}
		*item.dest = v
	}
	return cfg, nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
