// Command samphubd runs a standalone SAMP hub: the registry/router
// core plus whichever of the Standard and Web Profiles its
// configuration enables, grounded on the teacher's
// cmd/orchestrator's configuration-source resolution and
// signal-driven graceful shutdown sequencing.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lvalerom/jsamp/internal/config"
	"github.com/lvalerom/jsamp/internal/hub"
	"github.com/lvalerom/jsamp/internal/hublog"
	"github.com/lvalerom/jsamp/profile/standard"
	"github.com/lvalerom/jsamp/profile/web"
)

// profile is the common lifecycle every enabled rendezvous mechanism
// implements, letting main shut each one down uniformly regardless of
// which profiles a given run enables.
type profile interface {
	Start() error
	Stop(ctx context.Context) error
}

func main() {
	configPath := flag.String("config", "config/samphubd.yaml", "path to the hub's YAML configuration")
	flag.Parse()

	var cfg *config.Config
	var configSource string
	if loaded, err := config.Load(*configPath); err != nil {
		log.Printf("no usable config at %s (%v); using defaults", *configPath, err)
		cfg = defaultConfig()
		configSource = "hardcoded defaults"
	} else {
		cfg = loaded
		configSource = *configPath
	}
	log.Printf("starting samphubd using %s", configSource)

	logger, err := hublog.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	defer logger.Sync()

	h := hub.New(hub.Config{MaxClients: cfg.MaxClients, MaxDeliveryPerTarget: cfg.MaxDeliveryPerTarget})
	h.AddObserver(hub.ObserverFunc(func(e hub.Event) {
		logger.Infow("hub event", hublog.FieldMType, e.MType, hublog.FieldClientID, e.ClientID)
	}))

	var profiles []profile
	if cfg.Standard.Enabled {
		sp := standard.New(h, cfg.Standard, cfg.HTTPWorkers, logger.With(hublog.FieldProfile, "standard"))
		if err := sp.Start(); err != nil {
			log.Fatalf("starting standard profile: %v", err)
		}
		profiles = append(profiles, sp)
	}
	if cfg.Web.Enabled {
		wp := web.New(h, cfg.Web, logger.With(hublog.FieldProfile, "web"))
		if err := wp.Start(); err != nil {
			log.Fatalf("starting web profile: %v", err)
		}
		profiles = append(profiles, wp)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Infow("received signal, shutting down", "signal", sig.String())

	h.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, p := range profiles {
		if err := p.Stop(ctx); err != nil {
			logger.Warnw("profile shutdown error", "error", err)
		}
	}
	logger.Infow("samphubd stopped")
}

func defaultConfig() *config.Config {
	return &config.Config{
		LogLevel:             "info",
		MaxClients:           4096,
		MaxDeliveryPerTarget: 16,
		Standard:             config.StandardConfig{Enabled: true},
		Web:                  config.WebConfig{Enabled: true, Addr: ":8090", Path: "/", QueueBound: 4096, AllowAllOrigins: false},
	}
}
