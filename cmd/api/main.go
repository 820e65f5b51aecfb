package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"stylebooth/internal/analysis"
	"stylebooth/internal/camera"
	"stylebooth/internal/capture"
	"stylebooth/internal/http/handlers"
	httpapi "stylebooth/internal/http/httpapi"
	"stylebooth/internal/infra"
	"stylebooth/internal/metrics"
	"stylebooth/internal/providers/gemini"
	"stylebooth/internal/shell"
	"stylebooth/internal/storage"
	"stylebooth/internal/stylegen"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	client, err := gemini.NewClient(ctx, gemini.Options{
		APIKey:         cfg.GeminiAPIKey,
		BaseURL:        cfg.GeminiBaseURL,
		DescribeModel:  cfg.DescribeModel,
		AnalysisModel:  cfg.AnalysisModel,
		SynthesisModel: cfg.SynthesisModel,
		Logger:         infra.WithComponent(logger, "gemini"),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create gemini client")
	}

	registry := metrics.NewRegistry()

	generator, err := stylegen.NewGenerator(stylegen.Options{
		Describer:   client,
		Synthesizer: client,
		Metrics:     registry,
		Logger:      infra.WithComponent(logger, "stylegen"),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create generator")
	}
	analyzer, err := analysis.NewClient(analysis.Options{
		Generator: client,
		Metrics:   registry,
		Logger:    infra.WithComponent(logger, "analysis"),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create analyzer")
	}

	// A numeric CAMERA_DEVICE selects a local webcam; anything else takes
	// frames pushed by the browser.
	var (
		device camera.Device
		feed   *camera.FeedDevice
	)
	if idx, ok := cfg.CameraIndex(); ok {
		device = camera.NewWebcamDevice(idx)
	} else {
		feed = camera.NewFeedDevice()
		device = feed
	}
	adapter := capture.NewAdapter(capture.Options{
		Device:      device,
		JPEGQuality: cfg.CaptureJPEGQuality,
		MaxUpload:   cfg.MaxUploadBytes,
		Logger:      infra.WithComponent(logger, "capture"),
	})

	session, err := shell.New(shell.Options{
		Input:     adapter,
		Generator: generator,
		Analyzer:  analyzer,
		Logger:    infra.WithComponent(logger, "shell"),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create session")
	}
	defer session.Close()

	files, err := storage.NewFileStore(cfg.DownloadDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare download directory")
	}

	app := handlers.NewApp(handlers.Options{
		Shell:     session,
		Capture:   adapter,
		Feed:      feed,
		Files:     files,
		Metrics:   registry,
		Logger:    &logger,
		MaxUpload: cfg.MaxUploadBytes,
	})
	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Str("camera", cfg.CameraDevice).Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
