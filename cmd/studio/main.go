package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopscene/studio/internal/auth"
	"github.com/shopscene/studio/internal/config"
	"github.com/shopscene/studio/internal/credentials"
	"github.com/shopscene/studio/internal/handlers"
	"github.com/shopscene/studio/internal/llm"
	"github.com/shopscene/studio/internal/pipeline"
	"github.com/shopscene/studio/internal/removal"
	"github.com/shopscene/studio/internal/store"
)

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().Msg("Starting SceneStudio")

	creds := credentials.NewStore(cfg.CredentialPath)
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = creds.Load()
	}

	factory := llm.NewFactory(&llm.Config{
		APIKey:      apiKey,
		BaseURL:     cfg.APIBaseURL,
		ModelText:   cfg.ModelText,
		ModelImage:  cfg.ModelImage,
		ModelVision: cfg.ModelVision,
	})

	presets := store.NewPresetStore(store.DefaultPresets())
	results := store.NewResultStore()
	remover := removal.NewClient(cfg.RemovalEndpoint, cfg.RemovalTimeout)

	p := pipeline.New(factory, presets, results, remover,
		cfg.ExpansionProvider, cfg.ImageProvider, cfg.CompletedResetDelay)

	h := handlers.NewHandler(p, presets, results, factory, creds, cfg.MaxPresetsPerBatch)

	r := mux.NewRouter()
	r.Use(auth.Middleware(cfg.AuthToken))
	h.Register(r)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("SceneStudio listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("SceneStudio exited")
}
