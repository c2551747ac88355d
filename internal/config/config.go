package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/image-to-pdf/internal/constants"
	"github.com/kozaktomas/image-to-pdf/internal/layout"
)

//go:embed pages.yaml
var pagesYAML []byte

// landscapeSuffix rotates a preset when appended to its name.
const landscapeSuffix = "-landscape"

type Config struct {
	Compression CompressionConfig
	Document    DocumentConfig
	Web         WebConfig
	Pages       PagesConfig
}

type CompressionConfig struct {
	MaxBytes     int // byte budget per image (default 1MB)
	MaxDimension int // longest side in pixels (default 1920)
	Quality      int // initial JPEG quality (default 85)
}

type DocumentConfig struct {
	Name string // default output name, defaults to converted-images.pdf
	Page string // page preset name, defaults to a4
}

type WebConfig struct {
	Host           string
	Port           int
	SessionSecret  string   // HMAC key for session cookies, random per process if empty
	SessionTTL     int      // idle minutes before a session is torn down
	RateLimit      int      // builds and uploads per minute per client
	AllowedOrigins []string // extra CORS origins besides localhost
}

type PagesConfig struct {
	Pages map[string]PagePreset `yaml:"pages"`
}

type PagePreset struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envString returns the environment variable or defaultVal when it is unset or blank.
func envString(key, defaultVal string) string {
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		return s
	}
	return defaultVal
}

// envList splits a comma-separated environment variable, dropping empty items.
func envList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func Load() *Config {
	var pages PagesConfig
	if err := yaml.Unmarshal(pagesYAML, &pages); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded pages.yaml: " + err.Error())
	}

	return &Config{
		Compression: CompressionConfig{
			MaxBytes:     envInt("COMPRESS_MAX_BYTES", constants.MaxCompressedBytes),
			MaxDimension: envInt("COMPRESS_MAX_DIMENSION", constants.MaxImageSize),
			Quality:      envInt("COMPRESS_QUALITY", 85),
		},
		Document: DocumentConfig{
			Name: envString("DOCUMENT_NAME", "converted-images.pdf"),
			Page: envString("DOCUMENT_PAGE_SIZE", "a4"),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", constants.DefaultHost),
			Port:           envInt("WEB_PORT", constants.DefaultPort),
			SessionSecret:  os.Getenv("WEB_SESSION_SECRET"),
			SessionTTL:     envInt("WEB_SESSION_TTL_MINUTES", int(constants.DefaultSessionTTL.Minutes())),
			RateLimit:      envInt("WEB_RATE_LIMIT", constants.DefaultBuildsPerMinute),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Pages: pages,
	}
}

// PageSize resolves a preset name such as "a4" or "letter-landscape".
func (c *Config) PageSize(name string) (layout.PageSize, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	base, landscape := strings.CutSuffix(name, landscapeSuffix)

	preset, ok := c.Pages.Pages[base]
	if !ok {
		return layout.PageSize{}, fmt.Errorf("unknown page size %q (available: %s)", name, strings.Join(c.PageNames(), ", "))
	}

	page := layout.PageSize{Name: base, Width: preset.Width, Height: preset.Height}
	if err := page.Validate(); err != nil {
		return layout.PageSize{}, err
	}
	if landscape {
		return page.Landscape(), nil
	}
	return page.Portrait(), nil
}

// DefaultPage returns the configured document page, falling back to A4.
func (c *Config) DefaultPage() layout.PageSize {
	page, err := c.PageSize(c.Document.Page)
	if err != nil {
		return layout.A4
	}
	return page
}

// PageNames lists the preset names in alphabetical order.
func (c *Config) PageNames() []string {
	names := make([]string, 0, len(c.Pages.Pages))
	for name := range c.Pages.Pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
