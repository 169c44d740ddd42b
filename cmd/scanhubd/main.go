// cmd/scanhubd/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"scanhub/internal/collector"
	"scanhub/internal/config"
	"scanhub/internal/server"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML config (optional)")
	addr := flag.String("addr", "", "listen address override")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	coll := collector.New(collector.Options{MaxHistory: cfg.Server.MaxHistory})

	srv := server.New(coll, server.Config{
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		RatePerSec:   cfg.Server.RatePerSec,
		RateBurst:    cfg.Server.RateBurst,
	})

	httpSrv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Routes(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("scanhubd listening on %s (history cap %d)", cfg.Server.Addr, cfg.Server.MaxHistory)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	coll.Close()
}
