package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/s2eweb/s2eweb/internal/database"
	"github.com/s2eweb/s2eweb/internal/geoip"
	"github.com/s2eweb/s2eweb/internal/notify"
	"github.com/s2eweb/s2eweb/internal/server"
	"github.com/s2eweb/s2eweb/internal/slack"
	"github.com/s2eweb/s2eweb/internal/storage"
	"github.com/s2eweb/s2eweb/internal/validate"
	"github.com/s2eweb/s2eweb/internal/webhook"
	"github.com/s2eweb/s2eweb/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the configuration web server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	port := getEnv("PORT", "8080")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	passwordHash := os.Getenv("ADMIN_PASSWORD_HASH")
	if passwordHash == "" {
		log.Println("ADMIN_PASSWORD_HASH not set; settings forms are read-only until one is configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(databaseURL); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	log.Println("database migrations applied")

	cfg := server.Config{
		DB:                db.Pool,
		Pinger:            db,
		JWTSecret:         jwtSecret,
		AdminPasswordHash: passwordHash,
		BaseURL:           getEnv("BASE_URL", "http://localhost:8080"),
		S3PublicEndpoint:  os.Getenv("S3_PUBLIC_ENDPOINT"),
	}

	if os.Getenv("S3_ENDPOINT") != "" {
		store, err := newStorage(ctx)
		if err != nil {
			return err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("storage bucket check failed: %w", err)
		}
		cfg.Storage = store
		log.Println("storage bucket ready")
	} else {
		log.Println("S3_ENDPOINT not set, embed resources are served from their stored URLs")
	}

	if sub, err := fs.Sub(web.DistFS, "dist"); err == nil {
		cfg.ClientFS = sub
		log.Println("embedded browser client loaded")
	}

	if raw := os.Getenv("MAC_ADDRESS"); raw != "" {
		mac, err := net.ParseMAC(raw)
		if err != nil {
			return fmt.Errorf("invalid MAC_ADDRESS: %w", err)
		}
		cfg.MACAddress = mac
	}

	if path := os.Getenv("GEOIP_DB"); path != "" {
		resolver, err := geoip.New(path)
		if err != nil {
			log.Printf("geoip disabled: %v", err)
		} else {
			defer resolver.Close()
			cfg.GeoIP = resolver
		}
	}

	webhookURL := os.Getenv("WEBHOOK_URL")
	if msg := validate.WebhookURL(webhookURL); msg != "" {
		return errors.New(msg)
	}
	hooks := webhook.New(db.Pool, webhookURL, os.Getenv("WEBHOOK_SECRET"))
	slackClient := slack.New(os.Getenv("SLACK_WEBHOOK_URL"), cfg.BaseURL)
	if dispatcher := notify.NewMulti(hooks, slackClient); dispatcher != nil {
		cfg.Webhooks = dispatcher
		log.Printf("config change notifications enabled (%d targets)", dispatcher.Len())
	}

	srv := server.New(cfg)

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	go srv.Run(runCtx)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("s2eweb listening on :%s", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-shutdownCh
	log.Println("shutting down...")
	runCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	log.Println("shutdown complete")
	return nil
}

func newStorage(ctx context.Context) (*storage.Storage, error) {
	store, err := storage.New(ctx, storage.Config{
		Endpoint:       getEnv("S3_ENDPOINT", "http://localhost:3900"),
		PublicEndpoint: os.Getenv("S3_PUBLIC_ENDPOINT"),
		Bucket:         getEnv("S3_BUCKET", "s2eweb"),
		AccessKey:      os.Getenv("S3_ACCESS_KEY"),
		SecretKey:      os.Getenv("S3_SECRET_KEY"),
		Region:         getEnv("S3_REGION", "eu-central-1"),
	})
	if err != nil {
		return nil, fmt.Errorf("storage initialization failed: %w", err)
	}
	return store, nil
}
