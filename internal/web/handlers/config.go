package handlers

import (
	"net/http"

	"github.com/kozaktomas/image-to-pdf/internal/config"
	"github.com/kozaktomas/image-to-pdf/internal/constants"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	Pages         []PageInfo `json:"pages"`
	DefaultPage   string     `json:"default_page"`
	MaxImageBytes int        `json:"max_image_bytes"`
	MaxDimension  int        `json:"max_dimension"`
	MaxUploadSize int64      `json:"max_upload_size"`
}

// PageInfo describes one page preset in points
type PageInfo struct {
	Name   string  `json:"name"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Get returns the page presets and ingestion limits
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	names := h.config.PageNames()
	pages := make([]PageInfo, 0, len(names))
	for _, name := range names {
		page, err := h.config.PageSize(name)
		if err != nil {
			continue
		}
		pages = append(pages, PageInfo{Name: name, Width: page.Width, Height: page.Height})
	}

	respondJSON(w, http.StatusOK, ConfigResponse{
		Pages:         pages,
		DefaultPage:   h.config.DefaultPage().Name,
		MaxImageBytes: h.config.Compression.MaxBytes,
		MaxDimension:  h.config.Compression.MaxDimension,
		MaxUploadSize: constants.MaxUploadSize,
	})
}
