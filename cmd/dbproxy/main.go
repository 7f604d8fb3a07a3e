// Package main runs the database proxy on the VPN host. All configuration
// comes from environment variables so the systemd unit stays the only
// config surface.
package main

import (
	"net"
	"os"

	"github.com/sirupsen/logrus"

	"exchangesync/internal/app/proxy"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if os.Getenv("PROXY_DEBUG") != "" {
		logrus.SetLevel(logrus.DebugLevel)
	}

	targetHost := os.Getenv("PROXY_TARGET_HOST")
	if targetHost == "" {
		logrus.Fatal("PROXY_TARGET_HOST environment variable is required")
	}
	listenAddr := net.JoinHostPort(envOr("PROXY_HOST", "0.0.0.0"), envOr("PROXY_PORT", "5433"))
	targetAddr := net.JoinHostPort(targetHost, envOr("PROXY_TARGET_PORT", "5432"))

	p := proxy.New(listenAddr, targetAddr)
	if err := p.CheckTarget(); err != nil {
		logrus.Fatalf("startup check failed: %v", err)
	}
	logrus.WithFields(logrus.Fields{"target": targetAddr}).Info("target reachable")

	if err := p.ListenAndServe(); err != nil {
		logrus.Fatalf("proxy: %v", err)
	}
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
