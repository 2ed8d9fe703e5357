package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dlemos/promopost/internal/affiliate"
	"github.com/dlemos/promopost/internal/ingest"
	"github.com/dlemos/promopost/internal/models"
)

// Scraper extracts one product per URL.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*models.Product, error)
}

// Compositor renders one image per job.
type Compositor interface {
	Generate(ctx context.Context, job *models.RenderJob) bool
}

// Store is the persisted product index.
type Store interface {
	Upsert(product *models.Product) error
	All() []*models.Product
	Count() int
}

type Handlers struct {
	scraper    Scraper
	compositor Compositor
	store      Store
	loader     *ingest.Loader
	inputCSV   string
	imagesDir  string
	tempDir    string
	logger     *slog.Logger
}

func NewHandlers(scraper Scraper, compositor Compositor, store Store, loader *ingest.Loader, inputCSV, imagesDir, tempDir string, logger *slog.Logger) *Handlers {
	return &Handlers{
		scraper:    scraper,
		compositor: compositor,
		store:      store,
		loader:     loader,
		inputCSV:   inputCSV,
		imagesDir:  imagesDir,
		tempDir:    tempDir,
		logger:     logger.With("component", "api"),
	}
}

// GetStatus reports service health and on-disk state.
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	imagesCount := 0
	if files, err := os.ReadDir(h.imagesDir); err == nil {
		for _, f := range files {
			if strings.HasSuffix(f.Name(), ".jpg") {
				imagesCount++
			}
		}
	}

	csvExists := false
	if _, err := os.Stat(h.inputCSV); err == nil {
		csvExists = true
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"csv_exists":   csvExists,
		"images_count": imagesCount,
		"products":     h.store.Count(),
	})
}

// URLEntry is one worklist row as returned by GET /api/urls.
type URLEntry struct {
	ID  int    `json:"id"`
	URL string `json:"url"`
}

func (h *Handlers) GetURLs(w http.ResponseWriter, r *http.Request) {
	entries, err := h.loader.Load(h.inputCSV)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			h.respondJSON(w, http.StatusOK, []URLEntry{})
			return
		}
		h.respondStageError(w, http.StatusInternalServerError, "ingest", err.Error())
		return
	}

	out := make([]URLEntry, len(entries))
	for i, e := range entries {
		out[i] = URLEntry{ID: e.ID, URL: e.URL}
	}
	h.respondJSON(w, http.StatusOK, out)
}

// AddURLRequest is the body of POST /api/urls.
type AddURLRequest struct {
	URL string `json:"url"`
}

func (h *Handlers) AddURL(w http.ResponseWriter, r *http.Request) {
	var req AddURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondStageError(w, http.StatusBadRequest, "request", "invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		h.respondStageError(w, http.StatusBadRequest, "request", "url is required")
		return
	}

	if err := h.loader.Append(h.inputCSV, req.URL); err != nil {
		h.respondStageError(w, http.StatusBadRequest, "ingest", err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	ProductURL    string `json:"product_url"`
	AffiliateLink string `json:"affiliate_link"`
}

// Generate scrapes one product, attaches the affiliate link, renders the
// image and streams it back.
func (h *Handlers) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondStageError(w, http.StatusBadRequest, "request", "invalid request body")
		return
	}
	if strings.TrimSpace(req.ProductURL) == "" {
		h.respondStageError(w, http.StatusBadRequest, "request", "product_url is required")
		return
	}

	product, err := h.scraper.Scrape(r.Context(), req.ProductURL)
	if err != nil {
		h.logger.Warn("scrape failed", "url", req.ProductURL, "error", err)
		h.respondStageError(w, http.StatusInternalServerError, "scrape", err.Error())
		return
	}

	product.AffiliateLink = strings.TrimSpace(req.AffiliateLink)
	product.ID = h.store.Count() + 1

	imageName := fmt.Sprintf("product_%d.jpg", product.ID)
	outputPath := filepath.Join(h.imagesDir, imageName)

	ok := h.compositor.Generate(r.Context(), &models.RenderJob{
		Product:    product,
		OutputPath: outputPath,
		TempDir:    h.tempDir,
	})
	if !ok {
		h.respondStageError(w, http.StatusInternalServerError, "render", "image generation failed")
		return
	}

	product.ImagePath = outputPath
	if err := h.store.Upsert(product); err != nil {
		h.respondStageError(w, http.StatusInternalServerError, "persist", err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%s", imageName))
	http.ServeFile(w, r, outputPath)
}

// AffiliateLinkRequest is the body of POST /api/affiliate-link.
type AffiliateLinkRequest struct {
	ProductURL string `json:"product_url"`
	SocialCode string `json:"social_code"`
}

func (h *Handlers) AffiliateLink(w http.ResponseWriter, r *http.Request) {
	var req AffiliateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondStageError(w, http.StatusBadRequest, "request", "invalid request body")
		return
	}
	if strings.TrimSpace(req.ProductURL) == "" || strings.TrimSpace(req.SocialCode) == "" {
		h.respondStageError(w, http.StatusBadRequest, "request", "product_url and social_code are required")
		return
	}

	link, err := affiliate.Link(req.ProductURL, req.SocialCode)
	if err != nil {
		h.respondStageError(w, http.StatusBadRequest, "affiliate", err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"affiliate_link": link})
}

// GetProducts lists the persisted products.
func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.store.All())
}

// ServeImage streams a generated image by file name.
func (h *Handlers) ServeImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" || name != filepath.Base(name) {
		h.respondStageError(w, http.StatusBadRequest, "request", "invalid image name")
		return
	}

	path := filepath.Join(h.imagesDir, name)
	if _, err := os.Stat(path); err != nil {
		h.respondStageError(w, http.StatusNotFound, "images", "image not found")
		return
	}

	http.ServeFile(w, r, path)
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// respondStageError names the pipeline stage that failed so the caller can
// tell a bad request from a scrape or render problem.
func (h *Handlers) respondStageError(w http.ResponseWriter, status int, stage, message string) {
	h.respondJSON(w, status, map[string]string{"stage": stage, "error": message})
}
