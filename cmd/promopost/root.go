package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dlemos/promopost/internal/browser"
	"github.com/dlemos/promopost/internal/config"
	"github.com/dlemos/promopost/internal/render"
	"github.com/dlemos/promopost/internal/scraper"
	"github.com/dlemos/promopost/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "promopost",
	Short: "Scrapes marketplace products and renders branded promo images",
	Long: `promopost reads a list of product URLs, extracts title, prices and
image for each through layered fallback strategies, and renders a 1080x1080
promotional image per product.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// app bundles the wired components shared by the run and serve commands.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	browser    *browser.Browser // nil when the capability probe failed
	scraper    *scraper.Scraper
	compositor *render.Compositor
	store      *store.Store
}

// newApp loads configuration, probes the browser capability once and wires
// the scrape and render stacks.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := setupLogger(cfg.Logging)

	var b *browser.Browser
	var rendered *scraper.RenderedExtractor
	if browser.Probe(logger) {
		b, err = browser.New(&browser.Options{
			Headless:       cfg.Browser.Headless,
			Timeout:        cfg.Browser.Timeout,
			UserAgent:      cfg.Scraper.UserAgent,
			ViewportWidth:  cfg.Browser.ViewportWidth,
			ViewportHeight: cfg.Browser.ViewportHeight,
			AcceptLanguage: cfg.Browser.AcceptLanguage,
			TimezoneID:     cfg.Browser.TimezoneID,
			Locale:         cfg.Browser.Locale,
		})
		if err != nil {
			logger.Warn("browser startup failed, continuing without it", "error", err)
			b = nil
		}
	}
	if b != nil {
		rendered = scraper.NewRenderedExtractor(b, cfg.Browser.SettleDelay, cfg.Scraper.MinTitleLength, logger)
	}

	client := scraper.NewClient(cfg.Scraper.RequestTimeout, cfg.Scraper.UserAgent)
	s := scraper.New(client, rendered, cfg.Scraper.MinTitleLength, logger)

	compositor := render.New(b, render.Options{
		CanvasWidth:  cfg.Render.CanvasWidth,
		CanvasHeight: cfg.Render.CanvasHeight,
		JPEGQuality:  cfg.Render.JPEGQuality,
		TitleMaxLen:  cfg.Render.TitleMaxLen,
		BadgeText:    cfg.Render.BadgeText,
		CTAText:      cfg.Render.CTAText,
		Currency:     cfg.Render.Currency,
		AssetsDir:    cfg.Paths.AssetsDir,
	}, cfg.Scraper.RequestTimeout, cfg.Browser.SettleDelay, cfg.Scraper.UserAgent, logger)

	st, err := store.New(cfg.Paths.DataFile, logger)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		browser:    b,
		scraper:    s,
		compositor: compositor,
		store:      st,
	}, nil
}

func (a *app) close() {
	if a.browser != nil {
		if err := a.browser.Close(); err != nil {
			a.logger.Warn("browser shutdown incomplete", "error", err)
		}
	}
}
