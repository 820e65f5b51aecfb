package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"stylebooth/internal/analysis"
	"stylebooth/internal/capture"
	"stylebooth/internal/domain/style"
	"stylebooth/internal/infra"
	"stylebooth/internal/media"
	"stylebooth/internal/metrics"
	"stylebooth/internal/providers/gemini"
	"stylebooth/internal/shell"
	"stylebooth/internal/storage"
	"stylebooth/internal/stylegen"
)

func main() {
	var (
		imageFlag     string
		presetFlag    string
		hairFlag      string
		beardFlag     string
		colorFlag     string
		textFlag      string
		referenceFlag string
		outFlag       string
		analyzeFlag   bool
		timeoutFlag   time.Duration
	)
	flag.StringVar(&imageFlag, "image", "", "Path to the portrait to restyle (required)")
	flag.StringVar(&presetFlag, "preset", "", "Preset name to start from")
	flag.StringVar(&hairFlag, "hair", "", "Hairstyle, e.g. \"Buzz Cut\"")
	flag.StringVar(&beardFlag, "beard", "", "Beard style, e.g. \"Stubble\"")
	flag.StringVar(&colorFlag, "color", "", "Hair colour description")
	flag.StringVar(&textFlag, "text", "", "Additional free-text instructions")
	flag.StringVar(&referenceFlag, "reference", "", "Path to a reference hairstyle photo")
	flag.StringVar(&outFlag, "out", "", "Directory for the generated image (defaults to DOWNLOAD_DIR)")
	flag.BoolVar(&analyzeFlag, "analyze", false, "Print a face-shape analysis instead of generating")
	flag.DurationVar(&timeoutFlag, "timeout", 3*time.Minute, "Overall deadline")
	flag.Parse()

	if strings.TrimSpace(imageFlag) == "" {
		fmt.Fprintln(os.Stderr, "-image is required")
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := infra.NewLogger("cli").With().Str("cmd", "stylegen").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), timeoutFlag)
	defer cancel()

	client, err := gemini.NewClient(ctx, gemini.Options{
		APIKey:         cfg.GeminiAPIKey,
		BaseURL:        cfg.GeminiBaseURL,
		DescribeModel:  cfg.DescribeModel,
		AnalysisModel:  cfg.AnalysisModel,
		SynthesisModel: cfg.SynthesisModel,
		Logger:         &logger,
	})
	if err != nil {
		fail("gemini client", err)
	}
	registry := metrics.NewRegistry()
	generator, err := stylegen.NewGenerator(stylegen.Options{Describer: client, Synthesizer: client, Metrics: registry, Logger: &logger})
	if err != nil {
		fail("generator", err)
	}
	analyzer, err := analysis.NewClient(analysis.Options{Generator: client, Metrics: registry, Logger: &logger})
	if err != nil {
		fail("analyzer", err)
	}

	adapter := capture.NewAdapter(capture.Options{MaxUpload: cfg.MaxUploadBytes, Logger: &logger})
	f, err := os.Open(imageFlag)
	if err != nil {
		fail("open image", err)
	}
	_, err = adapter.Upload(f)
	f.Close()
	if err != nil {
		fail("read image", err)
	}

	store := style.NewStore()
	if presetFlag != "" {
		if _, err := store.ApplyPreset(presetFlag); err != nil {
			fail("preset", err)
		}
	}
	if _, err := store.Update(func(c *style.Configuration) {
		if hairFlag != "" {
			c.Hairstyle = style.Hairstyle(hairFlag)
		}
		if beardFlag != "" {
			c.BeardStyle = style.BeardStyle(beardFlag)
		}
		if colorFlag != "" {
			c.ColorPrompt = colorFlag
		}
		if textFlag != "" {
			c.TextPrompt = textFlag
		}
	}); err != nil {
		fail("style", err)
	}
	if referenceFlag != "" {
		data, err := os.ReadFile(referenceFlag)
		if err != nil {
			fail("open reference", err)
		}
		ref, err := media.FromBytes(data)
		if err != nil {
			fail("read reference", err)
		}
		store.SetReference(ref)
	}

	session, err := shell.New(shell.Options{
		Input:     adapter,
		Store:     store,
		Generator: generator,
		Analyzer:  analyzer,
		Logger:    &logger,
	})
	if err != nil {
		fail("session", err)
	}
	defer session.Close()

	if analyzeFlag {
		res, err := session.Analyze(ctx)
		if err != nil {
			fail(analysis.FailureMessage, err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(res)
		return
	}

	res, err := session.Generate(ctx)
	if err != nil {
		fail(stylegen.FailureMessage, err)
	}
	dir := outFlag
	if dir == "" {
		dir = cfg.DownloadDir
	}
	files, err := storage.NewFileStore(dir)
	if err != nil {
		fail("output directory", err)
	}
	path, err := files.SaveImage(ctx, res.FileName(), res.Image)
	if err != nil {
		fail("save image", err)
	}
	logger.Debug().Str("prompt", res.Prompt).Msg("synthesis prompt")
	for _, line := range registry.SnapshotLines() {
		logger.Debug().Msg(line)
	}
	fmt.Println(path)
}

func fail(what string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}
