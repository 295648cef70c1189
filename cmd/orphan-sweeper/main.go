package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devaalay/asset-service/internal/config"
	"github.com/devaalay/asset-service/internal/services/media"
	"github.com/devaalay/asset-service/internal/storage/mongodb"
)

// managedPrefixes are the object-store prefixes the service writes under.
// Objects elsewhere in the bucket are never touched.
var managedPrefixes = []string{"animations/", "god-idols/", "splash/"}

// graceWindow is how long an uncited object survives before it is treated
// as an orphan. It must comfortably exceed the longest plausible upload
// request, so an object staged by an in-flight request is never reaped.
const graceWindow = time.Hour

type OrphanSweeper struct {
	storage  *mongodb.Mongo
	media    *media.Service
	interval time.Duration
	logger   *slog.Logger
}

func NewOrphanSweeper(storage *mongodb.Mongo, mediaService *media.Service, interval time.Duration) *OrphanSweeper {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	return &OrphanSweeper{
		storage:  storage,
		media:    mediaService,
		interval: interval,
		logger:   logger,
	}
}

func (sw *OrphanSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	sw.logger.Info("Orphan sweeper started",
		"interval", sw.interval.String(),
		"grace_window", graceWindow.String())

	// Run once immediately on startup
	sw.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			sw.logger.Info("Orphan sweeper shutting down")
			return
		case <-ticker.C:
			sw.sweep(ctx)
		}
	}
}

// citedKeys collects every object key a metadata record currently owns.
func (sw *OrphanSweeper) citedKeys(ctx context.Context) (map[string]struct{}, error) {
	cited := make(map[string]struct{})

	anims, err := sw.storage.ListAnimations(ctx)
	if err != nil {
		return nil, err
	}
	for i := range anims {
		for _, key := range anims[i].ObjectKeys() {
			cited[key] = struct{}{}
		}
	}

	idols, err := sw.storage.ListGodIdols(ctx, false)
	if err != nil {
		return nil, err
	}
	for i := range idols {
		if idols[i].Video != nil && idols[i].Video.Key != "" {
			cited[idols[i].Video.Key] = struct{}{}
		}
	}

	splashes, err := sw.storage.ListSplash(ctx, false)
	if err != nil {
		return nil, err
	}
	for i := range splashes {
		if splashes[i].Video != nil && splashes[i].Video.Key != "" {
			cited[splashes[i].Video.Key] = struct{}{}
		}
	}

	return cited, nil
}

func (sw *OrphanSweeper) sweep(ctx context.Context) {
	startTime := time.Now()

	sw.logger.Info("Starting orphan sweep")

	// Records are snapshotted before listing objects, so any object staged
	// after the snapshot is younger than the grace window and survives.
	cited, err := sw.citedKeys(ctx)
	if err != nil {
		sw.logger.Error("Failed to collect cited keys",
			"error", err.Error(),
			"duration_ms", time.Since(startTime).Milliseconds())
		return
	}

	cutoff := time.Now().Add(-graceWindow)
	var scanned, removed int

	for _, prefix := range managedPrefixes {
		objects, err := sw.media.List(ctx, prefix)
		if err != nil {
			sw.logger.Error("Failed to list objects",
				"prefix", prefix,
				"error", err.Error())
			continue
		}

		for _, obj := range objects {
			scanned++
			if _, ok := cited[obj.Key]; ok {
				continue
			}
			if obj.LastModified.After(cutoff) {
				continue
			}

			sw.media.Unstage(ctx, obj.Key)
			removed++
			sw.logger.Info("Removed orphaned object",
				"key", obj.Key,
				"last_modified", obj.LastModified.String())
		}
	}

	duration := time.Since(startTime)

	sw.logger.Info("Completed orphan sweep",
		"objects_scanned", scanned,
		"objects_removed", removed,
		"cited_keys", len(cited),
		"duration_ms", duration.Milliseconds(),
		"duration", duration.String())
}

func main() {
	// Load config
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Initialize database connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	storage, err := mongodb.New(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	slog.Info("Connected to MongoDB")

	mediaService, err := media.NewService(cfg, logger)
	if err != nil {
		log.Fatal("Failed to initialize media service:", err)
	}
	slog.Info("Connected to object store", "bucket", cfg.MinIO.BucketName)

	// Sweep every 15 minutes
	sweeper := NewOrphanSweeper(storage, mediaService, 15*time.Minute)

	// Setup graceful shutdown
	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("Received shutdown signal")
		cancelRun()
	}()

	// Start the sweeper
	sweeper.Start(runCtx)

	slog.Info("Orphan sweeper stopped")
}
