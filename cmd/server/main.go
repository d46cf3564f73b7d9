package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sensor-monitor/internal/cache"
	"sensor-monitor/internal/config"
	"sensor-monitor/internal/handlers"
	"sensor-monitor/internal/history"
	"sensor-monitor/internal/monitor"
	"sensor-monitor/internal/storage"
	"sensor-monitor/internal/stream"
)

func main() {
	log.Println("Starting Sensor Monitor Service...")

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Журнал создается при старте; ошибка не фатальна, запись best-effort
	appendLog, err := storage.NewCSVLog(cfg.LogPath)
	if err != nil {
		log.Printf("Append log unavailable, readings will only be kept in memory: %v", err)
	} else {
		log.Printf("Append log: %s", appendLog.Path())
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	hub := stream.NewHub()
	go hub.Run(ctx)

	opts := []monitor.Option{monitor.WithPublisher(hub)}

	// Redis опционален
	var cacheStatus handlers.CacheStatus
	if cfg.RedisEnabled() {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		redisCache, err := cache.NewRedisCache(pingCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MirrorTTL)
		cancel()
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisCache.Close()
		log.Println("Connected to Redis")

		opts = append(opts, monitor.WithMirror(redisCache))
		cacheStatus = redisCache
	}

	buffer := history.NewBuffer(cfg.HistorySize)
	service := monitor.NewService(buffer, appendLog, opts...)
	log.Printf("History buffer capacity: %d", buffer.Cap())

	handler := handlers.NewHandler(service, cacheStatus, hub)

	// HTTP сервер
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handlers.NewRouter(handler),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server listening on port %s\n", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	service.Wait()

	log.Println("Server stopped gracefully")
}
