package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName        string `mapstructure:"app_name"`
	Env            string `mapstructure:"app_env"`
	LogLevel       string `mapstructure:"log_level"`
	ModelsFile     string `mapstructure:"models_file"`
	PublishersFile string `mapstructure:"publishers_file"`
	WorkDir        string `mapstructure:"work_dir"`

	ArticleMaxChars    int           `mapstructure:"article_max_chars"`
	SnippetMaxChars    int           `mapstructure:"snippet_max_chars"`
	MaxHTMLBytes       int           `mapstructure:"max_html_bytes"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`
	UserAgent          string        `mapstructure:"user_agent"`

	BrowserEnabled            bool          `mapstructure:"browser_enabled"`
	BrowserExecPath           string        `mapstructure:"browser_exec_path"`
	BrowserPageTimeoutSeconds int64         `mapstructure:"browser_page_timeout_seconds"`
	BrowserPageTimeout        time.Duration `mapstructure:"-"`

	TesseractPath       string        `mapstructure:"tesseract_path"`
	OCRLanguage         string        `mapstructure:"ocr_language"`
	YTDLPPath           string        `mapstructure:"ytdlp_path"`
	FFmpegPath          string        `mapstructure:"ffmpeg_path"`
	WhisperURL          string        `mapstructure:"whisper_url"`
	WhisperModel        string        `mapstructure:"whisper_model"`
	MediaTimeoutSeconds int64         `mapstructure:"media_timeout_seconds"`
	MediaTimeout        time.Duration `mapstructure:"-"`

	EnsembleParallelism int `mapstructure:"ensemble_parallelism"`
	BatchParallelism    int `mapstructure:"batch_parallelism"`

	FactCheckProvider      string  `mapstructure:"factcheck_provider"`
	FactCheckURL           string  `mapstructure:"factcheck_url"`
	GoogleFactCheckAPIKey  string  `mapstructure:"google_factcheck_api_key"`
	FactCheckLanguage      string  `mapstructure:"factcheck_language"`
	FactCheckRealThreshold float64 `mapstructure:"factcheck_real_threshold"`
	FactCheckMargin        float64 `mapstructure:"factcheck_margin"`

	NewsAPIKey         string `mapstructure:"newsapi_key"`
	SerpAPIKey         string `mapstructure:"serpapi_key"`
	GoogleNewsEnabled  bool   `mapstructure:"google_news_enabled"`
	GoogleNewsLanguage string `mapstructure:"google_news_language"`
	GoogleNewsCountry  string `mapstructure:"google_news_country"`
	EvidenceQueryChars int    `mapstructure:"evidence_query_chars"`
	EvidenceLimit      int    `mapstructure:"evidence_limit"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Fact-check providers accepted by factcheck_provider.
const (
	FactCheckNone   = "none"
	FactCheckHTTP   = "http"
	FactCheckGoogle = "google"
)

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "factify")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("models_file", "./configs/models.yaml")
	v.SetDefault("publishers_file", "")
	v.SetDefault("work_dir", os.TempDir())

	v.SetDefault("article_max_chars", 1200)
	v.SetDefault("snippet_max_chars", 500)
	v.SetDefault("max_html_bytes", 2<<20)
	v.SetDefault("http_timeout_seconds", 8)
	v.SetDefault("user_agent", "Mozilla/5.0 (compatible; factify/1.0)")

	v.SetDefault("browser_enabled", true)
	v.SetDefault("browser_exec_path", "")
	v.SetDefault("browser_page_timeout_seconds", 25)

	v.SetDefault("tesseract_path", "tesseract")
	v.SetDefault("ocr_language", "eng")
	v.SetDefault("ytdlp_path", "yt-dlp")
	v.SetDefault("ffmpeg_path", "ffmpeg")
	v.SetDefault("whisper_url", "http://localhost:9000/v1/audio/transcriptions")
	v.SetDefault("whisper_model", "base")
	v.SetDefault("media_timeout_seconds", 300)

	v.SetDefault("ensemble_parallelism", 5)
	v.SetDefault("batch_parallelism", 2)

	v.SetDefault("factcheck_provider", FactCheckNone)
	v.SetDefault("factcheck_url", "")
	v.SetDefault("google_factcheck_api_key", "")
	v.SetDefault("factcheck_language", "en")
	v.SetDefault("factcheck_real_threshold", 0.60)
	v.SetDefault("factcheck_margin", 0.15)

	v.SetDefault("newsapi_key", "")
	v.SetDefault("serpapi_key", "")
	v.SetDefault("google_news_enabled", false)
	v.SetDefault("google_news_language", "en-IN")
	v.SetDefault("google_news_country", "IN")
	v.SetDefault("evidence_query_chars", 80)
	v.SetDefault("evidence_limit", 5)

	v.SetDefault("storage_type", "none")
	v.SetDefault("bbolt_path", "./data/verdicts.db")
	v.SetDefault("storage_ttl_seconds", int64((24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((6*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// finalize validates values and derives durations.
func (c *Config) finalize() error {
	if c.ArticleMaxChars <= 0 {
		return fmt.Errorf("invalid article_max_chars (must be positive)")
	}
	if c.SnippetMaxChars <= 0 {
		return fmt.Errorf("invalid snippet_max_chars (must be positive)")
	}
	if c.MaxHTMLBytes <= 0 {
		return fmt.Errorf("invalid max_html_bytes (must be positive)")
	}
	if c.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	if c.BrowserPageTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid browser_page_timeout_seconds (must be positive seconds)")
	}
	if c.MediaTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid media_timeout_seconds (must be positive seconds)")
	}
	if c.EnsembleParallelism <= 0 {
		return fmt.Errorf("invalid ensemble_parallelism (must be positive)")
	}
	if c.BatchParallelism <= 0 {
		return fmt.Errorf("invalid batch_parallelism (must be positive)")
	}
	if c.FactCheckRealThreshold <= 0 || c.FactCheckRealThreshold > 1 {
		return fmt.Errorf("invalid factcheck_real_threshold (must be in (0,1])")
	}
	if c.FactCheckMargin < 0 || c.FactCheckMargin > 1 {
		return fmt.Errorf("invalid factcheck_margin (must be in [0,1])")
	}
	if c.EvidenceQueryChars <= 0 {
		return fmt.Errorf("invalid evidence_query_chars (must be positive)")
	}

	c.FactCheckProvider = strings.ToLower(strings.TrimSpace(c.FactCheckProvider))
	switch c.FactCheckProvider {
	case "", FactCheckNone:
		c.FactCheckProvider = FactCheckNone
	case FactCheckHTTP:
		if strings.TrimSpace(c.FactCheckURL) == "" {
			return fmt.Errorf("factcheck_url is required for the http fact-check provider")
		}
	case FactCheckGoogle:
		if strings.TrimSpace(c.GoogleFactCheckAPIKey) == "" {
			return fmt.Errorf("google_factcheck_api_key is required for the google fact-check provider")
		}
	default:
		return fmt.Errorf("unsupported factcheck_provider %q", c.FactCheckProvider)
	}

	if c.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if c.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}

	c.HTTPTimeout = time.Duration(c.HTTPTimeoutSeconds) * time.Second
	c.BrowserPageTimeout = time.Duration(c.BrowserPageTimeoutSeconds) * time.Second
	c.MediaTimeout = time.Duration(c.MediaTimeoutSeconds) * time.Second
	c.StorageTTL = time.Duration(c.StorageTTLSeconds) * time.Second
	c.StorageCleanupInterval = time.Duration(c.StorageCleanupSeconds) * time.Second
	return nil
}
