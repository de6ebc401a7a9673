package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/LJTian/TrendScraper/internal/api"
	"github.com/LJTian/TrendScraper/internal/app"
	"github.com/LJTian/TrendScraper/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("init app failed: %v", err)
	}
	defer a.Close()

	if err := a.ConnectBackends(); err != nil {
		log.Fatalf("connect backends failed: %v", err)
	}

	// 配置了数据库时才启动定时采集，否则只提供按需抓取接口
	if a.Store != nil {
		s, err := a.NewScheduler()
		if err != nil {
			log.Fatalf("init scheduler failed: %v", err)
		}
		s.Start()
		defer s.Stop()
	} else {
		log.Println("POSTGRES_DSN not set, scheduler disabled")
	}

	r := gin.Default()
	api.NewServer(a).RegisterRoutes(r)

	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(r)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("starting api server at %s ...", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server exit: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down api server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}
