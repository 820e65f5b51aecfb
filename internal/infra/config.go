package infra

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	GeminiAPIKey       string
	GeminiBaseURL      string
	DescribeModel      string
	AnalysisModel      string
	SynthesisModel     string
	CaptureJPEGQuality int
	CameraDevice       string
	DownloadDir        string
	CORSAllowedOrigins []string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	MaxUploadBytes     int64
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		GeminiAPIKey:       strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiBaseURL:      os.Getenv("GEMINI_BASE_URL"),
		DescribeModel:      getEnv("DESCRIBE_MODEL", "gemini-2.5-flash"),
		AnalysisModel:      getEnv("ANALYSIS_MODEL", "gemini-2.5-flash"),
		SynthesisModel:     getEnv("SYNTHESIS_MODEL", "imagen-3.0-generate-002"),
		CaptureJPEGQuality: getEnvInt("CAPTURE_JPEG_QUALITY", 92),
		CameraDevice:       getEnv("CAMERA_DEVICE", "feed"),
		DownloadDir:        getEnv("DOWNLOAD_DIR", "./downloads"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_MB", 10)) << 20,
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	if cfg.CaptureJPEGQuality < 1 || cfg.CaptureJPEGQuality > 100 {
		return nil, fmt.Errorf("CAPTURE_JPEG_QUALITY must be between 1 and 100, got %d", cfg.CaptureJPEGQuality)
	}

	return cfg, nil
}

// CameraIndex returns the webcam index when CameraDevice names one.
func (c *Config) CameraIndex() (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(c.CameraDevice))
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvList splits a comma separated value, trimming, de-duplicating and
// sorting the entries.
func getEnvList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	sort.Strings(out)
	return out
}
