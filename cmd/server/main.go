package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/hanseol/dental_shop/internal/config"
	"github.com/hanseol/dental_shop/internal/db"
	"github.com/hanseol/dental_shop/internal/events"
	"github.com/hanseol/dental_shop/internal/httpserver"
	"github.com/hanseol/dental_shop/internal/lock"
	"github.com/hanseol/dental_shop/internal/logging"
	"github.com/hanseol/dental_shop/internal/payment"
	"github.com/hanseol/dental_shop/internal/repo"
	"github.com/hanseol/dental_shop/internal/search"
	"github.com/hanseol/dental_shop/internal/service"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	e := echo.New()
	e.HideBanner = true

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(httpserver.RequestLogger(logger))

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	locker := lock.NewRedisLocker(rdb, cfg.ServiceName+":")

	var publisher events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := events.NewProducer(cfg.KafkaBrokers)
		defer producer.Close()
		publisher = producer
	}

	var esClient *elasticsearch.Client
	if cfg.ESURL != "" {
		esClient, err = search.NewClient(cfg)
		if err != nil {
			logger.Warn("elasticsearch unavailable, search disabled", "error", err)
			esClient = nil
		}
	}

	gateway := payment.NewTossClient(cfg.TossBaseURL, cfg.TossSecretKey)

	r := repo.NewGormRepo(gdb)
	cartSvc := &service.CartService{Repo: r, Locker: locker, Publisher: publisher}
	couponSvc := &service.CouponService{Repo: r}
	orderSvc := &service.OrderService{Repo: r, Coupons: couponSvc, Gateway: gateway, Publisher: publisher}
	paymentSvc := &service.PaymentService{Repo: r, Gateway: gateway, Publisher: publisher}
	authSvc := &service.AuthService{Repo: r, JWTSecret: cfg.JWTSecret}
	addressSvc := &service.AddressService{Repo: r}

	httpserver.Register(e, &httpserver.Deps{
		Auth:      &httpserver.AuthHTTP{Svc: authSvc, Carts: cartSvc},
		Cart:      &httpserver.CartHTTP{Svc: cartSvc, Coupons: couponSvc},
		Coupon:    &httpserver.CouponHTTP{Svc: couponSvc},
		Order:     &httpserver.OrderHTTP{Svc: orderSvc},
		Payment:   &httpserver.PaymentHTTP{Svc: paymentSvc},
		Product:   &httpserver.ProductHTTP{Repo: r, ES: esClient, ESIndex: cfg.ESIndex},
		Address:   &httpserver.AddressHTTP{Svc: addressSvc},
		JWTSecret: cfg.JWTSecret,
	})

	go func() {
		logger.Info("starting server", "port", cfg.ServerPort)
		if err := e.Start(fmt.Sprintf(":%d", cfg.ServerPort)); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}

	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.Close()
	}
	_ = rdb.Close()

	logger.Info("server stopped")
}
