package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Scraper ScraperConfig
	Browser BrowserConfig
	Render  RenderConfig
	Paths   PathsConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type ScraperConfig struct {
	RequestTimeout time.Duration
	ScrapeDelay    time.Duration
	UserAgent      string
	MinTitleLength int
}

type BrowserConfig struct {
	Headless       bool
	Timeout        time.Duration
	SettleDelay    time.Duration
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
}

type RenderConfig struct {
	CanvasWidth  int
	CanvasHeight int
	JPEGQuality  int
	TitleMaxLen  int
	BadgeText    string
	CTAText      string
	Currency     string
}

type PathsConfig struct {
	InputCSV  string
	ImagesDir string
	DataFile  string
	AssetsDir string
	TempDir   string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	// Missing .env is fine, the environment may already be populated.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "5000"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Scraper: ScraperConfig{
			RequestTimeout: getDurationOrDefault("SCRAPER_REQUEST_TIMEOUT", 10*time.Second),
			ScrapeDelay:    getDurationOrDefault("SCRAPER_DELAY", 3*time.Second),
			UserAgent: getEnvOrDefault("SCRAPER_USER_AGENT",
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
			MinTitleLength: getIntOrDefault("SCRAPER_MIN_TITLE_LENGTH", 6),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			SettleDelay:    getDurationOrDefault("BROWSER_SETTLE_DELAY", 3*time.Second),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1200),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1200),
			AcceptLanguage: getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7"),
			TimezoneID:     getEnvOrDefault("BROWSER_TIMEZONE", "America/Sao_Paulo"),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "pt-BR"),
		},
		Render: RenderConfig{
			CanvasWidth:  getIntOrDefault("RENDER_CANVAS_WIDTH", 1080),
			CanvasHeight: getIntOrDefault("RENDER_CANVAS_HEIGHT", 1080),
			JPEGQuality:  getIntOrDefault("RENDER_JPEG_QUALITY", 95),
			TitleMaxLen:  getIntOrDefault("RENDER_TITLE_MAX_LEN", 50),
			BadgeText:    getEnvOrDefault("RENDER_BADGE_TEXT", "ACHADO DO DIA"),
			CTAText:      getEnvOrDefault("RENDER_CTA_TEXT", "Vale muito a pena"),
			Currency:     getEnvOrDefault("RENDER_CURRENCY", "R$"),
		},
		Paths: PathsConfig{
			InputCSV:  getEnvOrDefault("INPUT_CSV", "input/products.csv"),
			ImagesDir: getEnvOrDefault("OUTPUT_IMAGES_DIR", "output/images"),
			DataFile:  getEnvOrDefault("OUTPUT_DATA_FILE", "output/data/products.json"),
			AssetsDir: getEnvOrDefault("ASSETS_DIR", "assets"),
			TempDir:   getEnvOrDefault("TEMP_DIR", "temp"),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Render.CanvasWidth < 1 || c.Render.CanvasHeight < 1 {
		return fmt.Errorf("render canvas dimensions must be positive")
	}

	if c.Render.JPEGQuality < 1 || c.Render.JPEGQuality > 100 {
		return fmt.Errorf("RENDER_JPEG_QUALITY must be between 1 and 100")
	}

	if c.Scraper.ScrapeDelay < 0 {
		return fmt.Errorf("SCRAPER_DELAY cannot be negative")
	}

	if c.Scraper.MinTitleLength < 1 {
		return fmt.Errorf("SCRAPER_MIN_TITLE_LENGTH must be at least 1")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
