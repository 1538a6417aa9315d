package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"booking-and-scheduling/internal/config"
	"booking-and-scheduling/internal/models"
	"booking-and-scheduling/internal/modules/availability"
	"booking-and-scheduling/internal/modules/booking"
	"booking-and-scheduling/internal/modules/capacity"
	"booking-and-scheduling/internal/modules/geography"
	"booking-and-scheduling/internal/modules/schedule"
	"booking-and-scheduling/pkg/events"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
)

// main is the application composition root. It wires the repositories,
// services and handlers behind their interfaces and starts the HTTP server.
func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("load timezone %q: %v", cfg.Timezone, err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	// The availability cache is advisory; run without it when redis is absent.
	var cache availability.Cache
	if cfg.RedisAddr != "" {
		cache = availability.NewRedisCache(
			redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}),
			cfg.AvailabilityCacheTTL(),
		)
	}

	// Booking events feed the notification subsystem; the core runs fine
	// without a broker.
	var publisher booking.EventPublisher
	if cfg.AMQPURL != "" {
		pub, err := events.NewPublisher(cfg.AMQPURL, "bookings")
		if err != nil {
			log.Printf("rabbitmq unavailable, continuing without events: %v", err)
		} else {
			defer pub.Close()
			publisher = pub
		}
	}

	scheduleRepo := schedule.NewRepository(pool)
	scheduleSvc := schedule.NewService(scheduleRepo, loc)
	scheduleHandler := schedule.NewHandler(scheduleSvc)

	geoRepo := geography.NewRepository(pool)
	geoSvc := geography.NewService(geoRepo)

	capacityRepo := capacity.NewRepository(pool)
	capacitySvc := capacity.NewService(capacityRepo)
	capacityHandler := capacity.NewHandler(capacitySvc)

	availabilitySvc := availability.NewService(scheduleSvc, geoSvc, capacitySvc, cache, availability.Policy{
		SlotDuration:   cfg.SlotDuration(),
		MinLeadTime:    cfg.MinLeadTime(),
		MaxAdvanceDays: cfg.MaxAdvanceDays,
	})
	availabilityHandler := availability.NewHandler(availabilitySvc, loc)

	bookingRepo := booking.NewRepository(pool)
	idemRepo := booking.NewIdempotencyRepository(pool)
	bookingSvc := booking.NewService(bookingRepo, idemRepo, scheduleSvc, geoSvc, capacitySvc, publisher, booking.Policy{
		MaxAdvanceDays:       cfg.MaxAdvanceDays,
		CommitRetries:        cfg.CommitRetries,
		CommitTimeout:        cfg.CommitTimeout(),
		IdempotencyRetention: cfg.IdempotencyRetention(),
	})
	bookingHandler := booking.NewHandler(bookingSvc)

	go purgeIdempotencyLoop(ctx, bookingSvc)

	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.ClientOrigin},
	}))

	api := e.Group("/api")
	availabilityHandler.RegisterRoutes(api)

	authed := api.Group("")
	authed.Use(echojwt.WithConfig(echojwt.Config{SigningKey: []byte(cfg.JWTSecret)}))
	authed.Use(requesterIdentity)
	bookingHandler.RegisterRoutes(authed)

	admin := api.Group("/admin")
	admin.Use(echojwt.WithConfig(echojwt.Config{SigningKey: []byte(cfg.JWTSecret)}))
	admin.Use(requesterIdentity, adminOnly)
	scheduleHandler.RegisterRoutes(admin)
	capacityHandler.RegisterRoutes(admin)

	log.Fatal(e.Start(":" + cfg.ServerPort))
}

// requesterIdentity copies the externally-issued identity out of the verified
// token. The core trusts these claims; issuing and refreshing tokens is the
// identity provider's job.
func requesterIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := c.Get("user").(*jwt.Token)
		if !ok {
			return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "missing identity"})
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "malformed identity claims"})
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "missing subject claim"})
		}
		role, _ := claims["role"].(string)
		if role == "" {
			role = "customer"
		}
		c.Set("userID", sub)
		c.Set("userRole", role)
		return next(c)
	}
}

func adminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Get("userRole") != "admin" {
			return c.JSON(http.StatusForbidden, models.ErrorResponse{Message: "admin role required"})
		}
		return next(c)
	}
}

// purgeIdempotencyLoop trims expired idempotency records hourly to bound
// storage growth.
func purgeIdempotencyLoop(ctx context.Context, svc booking.ServiceInterface) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.PurgeExpiredIdempotency(ctx)
			if err != nil {
				log.Printf("purge idempotency records: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("purged %d expired idempotency records", n)
			}
		}
	}
}
