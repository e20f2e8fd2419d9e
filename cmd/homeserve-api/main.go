// README: Entry point; loads config, wires services, starts the HTTP server and the offer expiry sweeper.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homeserve/internal/config"
	httptransport "homeserve/internal/http"
	"homeserve/internal/infra"
	"homeserve/internal/maps"
	"homeserve/internal/modules/booking"
	"homeserve/internal/modules/customer"
	"homeserve/internal/modules/location"
	"homeserve/internal/modules/matching"
	"homeserve/internal/modules/notify"
	"homeserve/internal/modules/payment"
	"homeserve/internal/modules/pricing"
	"homeserve/internal/modules/zone"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := infra.InitTracer(ctx, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName, cfg.Tracing.Env)
	if err != nil {
		log.Fatalf("tracer init: %v", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	if cfg.Firebase.ProjectID == "" {
		log.Fatal("HOMESERVE_FIREBASE_PROJECT_ID is required")
	}
	app, err := infra.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile, cfg.Firebase.DatabaseURL)
	if err != nil {
		log.Fatalf("firebase init: %v", err)
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, app)
	if err != nil {
		log.Fatalf("firebase auth: %v", err)
	}
	notifier, err := notify.NewFCMNotifier(ctx, app, cfg.Firebase.AdminTopic)
	if err != nil {
		log.Fatalf("firebase messaging: %v", err)
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	var events booking.EventPublisher = infra.NopPublisher{}
	if cfg.Rabbit.URL != "" {
		pub, err := infra.NewPublisher(cfg.Rabbit.URL, cfg.Rabbit.Exchange)
		if err != nil {
			log.Fatalf("rabbitmq: %v", err)
		}
		defer pub.Close()
		events = pub
	}

	var geocoder booking.Geocoder
	if cfg.Maps.APIKey != "" {
		g, err := maps.NewGeocoder(cfg.Maps.APIKey, "in")
		if err != nil {
			log.Fatalf("maps: %v", err)
		}
		geocoder = g
	} else {
		log.Printf("[maps] no api key; address-only bookings are rejected")
	}

	locationSvc := location.NewService(location.NewStore(redisClient))

	deps := booking.Deps{
		Store:       booking.NewStore(dbPool),
		Technicians: matching.NewStore(dbPool, locationSvc),
		Customers:   customer.NewStore(dbPool),
		Catalog:     pricing.NewService(pricing.NewStore(dbPool), cfg.Assignment.TaxBasisPoints),
		Zones:       zone.NewService(zone.NewStore(dbPool)),
		Notifier:    notifier,
		Payments:    payment.NewGateway(cfg.Payment.BaseURL, cfg.Payment.KeyID, cfg.Payment.KeySecret, cfg.Payment.WebhookSecret),
		Geocoder:    geocoder,
		Events:      events,
	}
	if cfg.Assignment.SweepLease > 0 {
		host, _ := os.Hostname()
		deps.Lease = booking.NewRedisLease(redisClient, host)
	}
	bookingSvc := booking.NewService(deps, cfg.Assignment)

	server := httptransport.NewServer(httptransport.ServerDeps{
		Booking:  bookingSvc,
		Location: locationSvc,
		Verifier: verifier,
	})

	go bookingSvc.RunExpirySweeper(ctx)

	if err := server.ListenAndServe(ctx, cfg.HTTP.Addr); err != nil {
		log.Fatal(err)
	}
}
