package galengine

import "time"

// SiteConfig holds all configuration for a galengine site.
type SiteConfig struct {
	Name string // Site name (default "Gallery")
	URL  string // Canonical URL (default "http://localhost:3000")

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite path (default "data/galleries.db")

	GalleriesDir string // Root directory for gallery photo folders (default "public")
	PublicDir    string // Root directory for public uploads (default "public")

	FramePath    string       // 9-slice frame template PNG (default DefaultFramePath)
	FrameBorders FrameBorders // Stretchable-region borders (default DefaultFrameBorders)

	AdminPassword string // Required: admin login password
	SessionSecret string // Required: session encryption secret
	SigningSecret string // Image URL signing secret; falls back to SessionSecret
	CookieSecure  bool   // Set true for HTTPS

	EventbriteToken string // Eventbrite API token (events endpoint)
	EventbriteOrgID string // Eventbrite organization id (events endpoint)

	GalleryCacheTTL time.Duration // Gallery record cache TTL (default 5min)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Gallery"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/galleries.db"
	}
	if c.GalleriesDir == "" {
		c.GalleriesDir = "public"
	}
	if c.PublicDir == "" {
		c.PublicDir = "public"
	}
	if c.FramePath == "" {
		c.FramePath = DefaultFramePath
	}
	if c.FrameBorders == (FrameBorders{}) {
		c.FrameBorders = DefaultFrameBorders
	}
	if c.GalleryCacheTTL == 0 {
		c.GalleryCacheTTL = 5 * time.Minute
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory served under /public (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}
