package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/Share/internal/adapters/http"
	"github.com/dkeye/Share/internal/adapters/idgen"
	"github.com/dkeye/Share/internal/adapters/storage"
	"github.com/dkeye/Share/internal/app"
	"github.com/dkeye/Share/internal/app/orch"
	"github.com/dkeye/Share/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	files, err := storage.NewOnDisk(cfg.UploadDir, cfg.UploadURLPrefix)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open upload storage")
	}
	if cfg.ClearUploadsOnStart {
		if err := files.Reset(); err != nil {
			log.Fatal().Err(err).Msg("failed to clear upload storage")
		}
	}
	ids, err := idgen.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init id generator")
	}

	reg := app.NewRegistry()
	o := orch.New(
		app.NewDirectory(ids, files),
		reg,
		app.NewBroadcaster(reg, app.SimplePolicy{}),
		files,
	)

	r := router.SetupRouter(ctx, cfg, o, files)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Share server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
