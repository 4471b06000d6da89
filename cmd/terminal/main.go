package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CoinTerminal/internal/catalog"
	"CoinTerminal/internal/collector"
	"CoinTerminal/internal/config"
	"CoinTerminal/internal/format"
	"CoinTerminal/internal/ratelimit"
	"CoinTerminal/internal/scheduler"
	"CoinTerminal/internal/server"
	"CoinTerminal/internal/snapshot"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] CoinTerminal starting...")

	once := flag.Bool("once", false, "fetch one snapshot, print it as a table, and exit")
	flag.Parse()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init fetcher, rate limited against the CMC request budget
	cmc := collector.NewCMCFetcher(cfg.CMC.BaseURL, cfg.CMC.APIKey, cfg.CMC.Convert,
		time.Duration(cfg.CMC.TimeoutSec)*time.Second, cfg.Proxy)
	fetcher := &ratelimit.Fetcher{
		F:  cmc,
		TB: ratelimit.NewTokenBucket(float64(cfg.RateLimit.MaxPerMinute)/60.0, cfg.RateLimit.Burst),
	}
	log.Printf("[INFO] data source: %s (convert %s, limit %d)", cmc.Name(), cfg.CMC.Convert, cfg.CMC.Limit)

	// Init snapshot store
	store := snapshot.NewStore(time.Duration(cfg.Refresh.SnapshotTTLSec) * time.Second)

	// Init coin catalog
	var cat catalog.Catalog
	if cfg.Database.SQLitePath != "" {
		sc, err := catalog.NewSQLiteCatalog(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite catalog failed, using noop: %v", err)
			cat = catalog.NewNoopCatalog()
		} else {
			cat = sc
			defer sc.Close()
		}
	} else {
		cat = catalog.NewNoopCatalog()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, fetcher, store, cat, cfg.CMC.Limit, cfg.CMC.Convert)

	if *once {
		snap, err := sched.Refresh()
		if err != nil {
			log.Fatalf("[FATAL] %s: %v", collector.UserMessage, err)
		}
		fmt.Print(format.Table(snap.Quotes))
		fmt.Println()
		fmt.Print(format.Summary(snap.Summarize()))
		return
	}

	// Init server and wire snapshot push
	srv := server.New(cfg, store, sched, cat)
	sched.OnSnapshot = srv.Broadcast

	if err := sched.RegisterAll(time.Duration(cfg.Refresh.IntervalSec)*time.Second, cfg.Refresh.CatalogCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// First snapshot without waiting for the first tick
	go func() {
		if _, err := sched.Refresh(); err != nil {
			log.Printf("[WARN] initial refresh: %v", err)
		}
	}()

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("[FATAL] server: %v", err)
		}
	}()

	log.Println("[INFO] CoinTerminal is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] server shutdown: %v", err)
	}
	log.Println("[INFO] CoinTerminal stopped")
}
