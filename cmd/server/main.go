// cmd/server/main.go
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

	"github.com/fedor-resh/bite/internal/analysis"
	"github.com/fedor-resh/bite/internal/config"
	"github.com/fedor-resh/bite/internal/database"
	"github.com/fedor-resh/bite/internal/handlers"
	"github.com/fedor-resh/bite/internal/inference"
	"github.com/fedor-resh/bite/internal/repository"
	"github.com/fedor-resh/bite/internal/storage"
	"github.com/fedor-resh/bite/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid config:", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal("Invalid timezone:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.MigrateDB(ctx, cfg.DatabaseURL); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	db, err := database.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	entries := repository.NewEntryRepository(db)

	images, err := newImageStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("Failed to initialize image store:", err)
	}

	client, err := inference.New(ctx, cfg.Inference)
	if err != nil {
		log.Fatal("Failed to initialize inference client:", err)
	}
	worker := analysis.NewWorker(client, entries)

	var (
		scheduler    tasks.Scheduler
		detached     *tasks.Detached
		consumerDone chan struct{}
	)
	switch cfg.Scheduler.Mode {
	case "kafka":
		writer := tasks.NewKafkaWriter(cfg.Scheduler.KafkaBrokers, cfg.Scheduler.KafkaTopic)
		defer writer.Close()
		scheduler = tasks.NewKafka(writer)

		reader := tasks.NewKafkaReader(cfg.Scheduler.KafkaBrokers, cfg.Scheduler.KafkaTopic, cfg.Scheduler.KafkaGroupID)
		defer reader.Close()
		consumerDone = make(chan struct{})
		go func() {
			defer close(consumerDone)
			if err := tasks.Consume(ctx, reader, worker.Run); err != nil {
				log.Printf("analysis consumer stopped: %v", err)
			}
		}()
	default:
		detached = tasks.NewDetached(worker.Run)
		scheduler = detached
	}

	router := handlers.NewRouter(handlers.Deps{
		Images:            images,
		Entries:           entries,
		Scheduler:         scheduler,
		Now:               time.Now,
		Location:          loc,
		MaxImageDimension: cfg.Storage.MaxImageDimension,
	}, []byte(cfg.JWTSecret), cfg.CORSOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	if detached != nil {
		if err := detached.Wait(shutdownCtx); err != nil {
			log.Printf("Analysis jobs abandoned: %v", err)
		}
	}
	if consumerDone != nil {
		select {
		case <-consumerDone:
		case <-shutdownCtx.Done():
			log.Printf("Analysis consumer abandoned, uncommitted job will be redelivered: %v", shutdownCtx.Err())
		}
	}
	log.Println("Server exited")
}

func newImageStore(ctx context.Context, cfg config.StorageConfig) (storage.ImageStore, error) {
	if cfg.Driver == "s3" {
		s3Store, err := storage.NewS3Store(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s3Store, nil
	}
	minioStore, err := storage.NewMinIOStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return minioStore, nil
}
