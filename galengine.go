// Package galengine is a gallery-site engine built with Go, Echo, and templ.
// It serves password-protected photo galleries with signed image URLs,
// on-the-fly 9-slice frame decoration, an admin dashboard API for galleries,
// assets and translations, and localized marketing pages.
//
// Users provide their own templ components via the ViewFuncs struct, and
// galengine handles the handler logic, middleware, signing, filesystem
// access control, and database operations.
package galengine

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// ViewFuncs holds user-provided templ components that the engine calls when
// rendering pages. This is the inversion-of-control mechanism that lets
// users own and customize all templates.
type ViewFuncs struct {
	Home           func(galleries []Gallery, locale Locale, messages map[string]string) templ.Component
	GalleryView    func(gallery Gallery, authenticated bool, locale Locale, messages map[string]string) templ.Component
	AdminLogin     func(showError bool, csrfToken string) templ.Component
	AdminDashboard func(galleries []Gallery, csrfToken string) templ.Component
	NotFound       func() templ.Component
	ServerError    func() templ.Component
}

// App is the central galengine application. It wires together the store,
// cache, signer, decorator, locales, handlers, and user-provided templates.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Cache  *GalleryCache
	Views  ViewFuncs

	signer         *Signer
	decorator      *Decorator
	catalog        *LocaleCatalog
	events         *EventsClient
	connectLimiter *attemptLimiter
	loginLimiter   *attemptLimiter
	customRoutes   []func(*App)
	staticDir      string
}

// New creates a new galengine App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start initializes all subsystems and starts the server. Configuration
// problems (missing secrets, unreadable frame template, degenerate frame
// geometry) fail here, before any request is served.
func (a *App) Start() error {
	if err := a.init(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// init wires everything except the listener. Split out so tests can drive
// the Echo instance directly.
func (a *App) init() error {
	// Validate required config. Signing falls back to the session secret;
	// absence of both is fatal for every endpoint, uniformly.
	if a.Config.AdminPassword == "" {
		return fmt.Errorf("galengine: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("galengine: SessionSecret is required")
	}
	secret := a.Config.SigningSecret
	if secret == "" {
		secret = a.Config.SessionSecret
	}
	if secret == "" {
		return fmt.Errorf("galengine: SigningSecret or SessionSecret is required")
	}
	a.signer = NewSigner(secret)

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("galengine: init store: %w", err)
	}
	a.Store = store

	a.Cache = NewGalleryCache(a.Store, a.Config.GalleryCacheTTL)

	catalog, err := LoadLocaleCatalog(a.Store)
	if err != nil {
		return fmt.Errorf("galengine: load locales: %w", err)
	}
	a.catalog = catalog

	decorator, err := NewDecorator(a.Config.FramePath, a.Config.FrameBorders)
	if err != nil {
		return fmt.Errorf("galengine: init decorator: %w", err)
	}
	a.decorator = decorator

	a.events = NewEventsClient(a.Config.EventbriteToken, a.Config.EventbriteOrgID)

	a.connectLimiter = newAttemptLimiter(10, time.Minute)
	a.loginLimiter = newAttemptLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Static assets and crawler plumbing
	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)

	// Pages
	e.GET("/", a.handleHome)
	e.GET("/gallery/:id/", a.handleGalleryPage)

	// Public API
	e.GET("/api/gallery", a.handleGalleryLookup)
	e.POST("/api/connect", a.handleConnect)
	e.GET("/api/images", a.handleImages)
	e.GET("/api/decorate", a.handleDecorate)
	e.GET("/api/locales/:locale", a.handleLocale)
	e.GET("/api/events", a.handleEvents)

	// Admin pages and API
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	e.GET("/api/admin/galleries", a.handleAdminGalleryList)
	e.POST("/api/admin/galleries", a.handleAdminGallerySave)
	e.DELETE("/api/admin/galleries/:id", a.handleAdminGalleryDelete)
	e.GET("/api/admin/gallery-images", a.handleAdminGalleryImages)
	e.DELETE("/api/admin/gallery-images", a.handleAdminGalleryImageDelete)
	e.GET("/api/admin/public-images", a.handleAdminPublicImages)
	e.POST("/api/admin/public-images", a.handleAdminPublicImageUpload)
	e.DELETE("/api/admin/public-images", a.handleAdminPublicImageDelete)
	e.GET("/api/admin/translations", a.handleAdminTranslationList)
	e.PUT("/api/admin/translations", a.handleAdminTranslationSave)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("galengine: required environment variable %s is not set", key)
	}
	return v
}
