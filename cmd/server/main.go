package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jhonavil2003/Medisupply-Backend-sub003/internal/config"
	"github.com/jhonavil2003/Medisupply-Backend-sub003/internal/modules/fleet"
	"github.com/jhonavil2003/Medisupply-Backend-sub003/internal/modules/orders"
	"github.com/jhonavil2003/Medisupply-Backend-sub003/internal/modules/routing"
	"github.com/jhonavil2003/Medisupply-Backend-sub003/pkg/maps"
	"github.com/jhonavil2003/Medisupply-Backend-sub003/pkg/notify"

	"github.com/jackc/pgx/v5/pgxpool"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to create connection pool: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("failed to reach database: %v", err)
	}

	var provider maps.Provider
	if cfg.GoogleMapsAPIKey != "" {
		provider = maps.NewGoogleProvider(cfg.GoogleMapsAPIKey)
	} else {
		log.Println("No Google Maps API key configured, using haversine distances.")
		provider = maps.NewHaversineProvider(0)
	}

	var publisher notify.Publisher = notify.NewLogPublisher()
	if cfg.NotifySender != "" && cfg.NotifyRecipient != "" {
		sesPublisher, err := notify.NewSESPublisher(ctx, cfg.NotifySender, cfg.NotifyRecipient)
		if err != nil {
			log.Printf("SES publisher unavailable, falling back to log: %v", err)
		} else {
			publisher = sesPublisher
		}
	}

	orderRepo := orders.NewRepository(pool)
	orderSvc := orders.NewService(orderRepo)

	fleetRepo := fleet.NewRepository(pool)
	tracker := fleet.NewTracker(fleetRepo)
	vehicles, err := fleetRepo.List(ctx)
	if err != nil {
		log.Fatalf("failed to load fleet: %v", err)
	}
	tracker.Sync(vehicles)

	fleetSvc := fleet.NewService(fleetRepo, tracker)
	fleetHandler := fleet.NewHandler(fleetSvc)

	routingRepo := routing.NewRepository(pool, orderRepo)
	routingSvc := routing.NewService(
		routingRepo,
		orderSvc,
		fleetRepo,
		tracker,
		provider,
		publisher,
		maps.Coordinate{Lat: cfg.DepotLatitude, Lng: cfg.DepotLongitude},
		time.Duration(cfg.OptimizerTimeoutSeconds)*time.Second,
		cfg.OptimizerConcurrency,
	)
	routingHandler := routing.NewHandler(routingSvc)

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.ClientOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1")
	api.Use(echojwt.JWT([]byte(cfg.JWTSecret)))
	routingHandler.RegisterRoutes(api)
	fleetHandler.RegisterRoutes(api)

	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server stopped: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
