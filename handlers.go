package galengine

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"image"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

func (a *App) handleHome(c echo.Context) error {
	galleries, err := a.Cache.ListGalleries()
	if err != nil {
		return err
	}
	locale := a.requestLocale(c)
	messages, err := a.catalog.Messages(locale)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Home(galleries, locale, messages))
}

func (a *App) handleGalleryPage(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	gallery, err := a.Cache.GetGallery(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return err
	}
	claim, ok := gallerySessionID(c)
	authenticated := ok && claim == gallery.ID
	locale := a.requestLocale(c)
	messages, err := a.catalog.Messages(locale)
	if err != nil {
		return err
	}
	return Render(c, a.Views.GalleryView(gallery, authenticated, locale, messages))
}

// requestLocale reads the optional locale query parameter, falling back to
// the default for anything unsupported.
func (a *App) requestLocale(c echo.Context) Locale {
	locale, err := ParseLocale(c.QueryParam("locale"))
	if err != nil {
		return DefaultLocale
	}
	return locale
}

// handleGalleryLookup serves GET /api/gallery: the public gallery list, or
// a single gallery when the gallery parameter names an id or exact title.
// Only public fields leave the server; paths and passwords never do.
func (a *App) handleGalleryLookup(c echo.Context) error {
	param := c.QueryParam("gallery")
	if param != "" {
		var gallery Gallery
		var err error
		if id, convErr := strconv.Atoi(param); convErr == nil {
			gallery, err = a.Cache.GetGallery(id)
		} else {
			gallery, err = a.Cache.FindGalleryByTitle(param)
		}
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return jsonMessage(c, http.StatusNotFound, "Gallery not found")
			}
			return err
		}
		return c.JSON(http.StatusOK, map[string]any{
			"message": "Gallery fetched successfully",
			"data":    gallery,
		})
	}

	galleries, err := a.Cache.ListGalleries()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message": "Galleries fetched successfully",
		"data":    galleries,
	})
}

type connectRequest struct {
	ID       int    `json:"id"`
	Password string `json:"password"`
}

// handleConnect unlocks a gallery for the caller's session. Wrong id and
// wrong password are indistinguishable in the response, and attempts are
// rate-limited per IP.
func (a *App) handleConnect(c echo.Context) error {
	if !a.connectLimiter.Allow(c.RealIP()) {
		return jsonMessage(c, http.StatusTooManyRequests, "Too many attempts. Try again later.")
	}

	var req connectRequest
	if err := c.Bind(&req); err != nil {
		return jsonMessage(c, http.StatusBadRequest, "id and password are required")
	}
	if req.ID <= 0 || req.Password == "" {
		return jsonMessage(c, http.StatusBadRequest, "id and password are required")
	}

	gallery, err := a.Store.GetGallery(req.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return jsonMessage(c, http.StatusNotFound, "Gallery not found")
		}
		return err
	}
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(gallery.Password)) != 1 {
		return jsonMessage(c, http.StatusNotFound, "Gallery not found")
	}

	if err := setGallerySession(c, gallery.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message": "Connected to the gallery",
		"data":    gallery,
	})
}

// handleImages serves GET /api/images. Without a file parameter it returns
// a paginated, signed listing (session-only admission); with one it streams
// that file (session or signature admission).
func (a *App) handleImages(c echo.Context) error {
	galleryID, err := galleryIDParam(c)
	if err != nil {
		return jsonMessage(c, http.StatusBadRequest, err.Error())
	}

	page := 1
	if raw := c.QueryParam("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page <= 0 {
			return jsonMessage(c, http.StatusBadRequest, "page must be a positive number")
		}
	}

	fileName := c.QueryParam("file")
	signature := c.QueryParam("sig")

	if fileName == "" {
		switch AdmitListing(c, galleryID) {
		case ErrUnauthenticated:
			return jsonMessage(c, http.StatusUnauthorized, "Not authenticated")
		case ErrForbidden:
			return jsonMessage(c, http.StatusForbidden, "Forbidden for this gallery")
		}
	} else if a.AdmitFile(c, galleryID, fileName, signature) != nil {
		return jsonMessage(c, http.StatusForbidden, "Forbidden for this gallery")
	}

	folder, status, err := a.galleryFolder(c, galleryID)
	if err != nil {
		return jsonMessage(c, status, err.Error())
	}

	if fileName != "" {
		if _, err := os.Stat(folder); err != nil {
			return jsonMessage(c, http.StatusNotFound, "Gallery directory does not exist")
		}
		return serveImageFile(c, folder, fileName)
	}

	entries, err := enumerateImages(folder)
	if err != nil {
		c.Logger().Errorf("enumerate gallery %d: %v", galleryID, err)
		return jsonMessage(c, http.StatusInternalServerError, "Unable to fetch images")
	}

	pageEntries, pagination := paginate(entries, page)
	data := make([]ImageAsset, 0, len(pageEntries))
	for _, entry := range pageEntries {
		data = append(data, ImageAsset{
			LargeURL:     a.signer.DecoratedURL(galleryID, entry.File),
			ThumbnailURL: a.signer.ImageURL(galleryID, entry.File),
			Width:        entry.Width,
			Height:       entry.Height,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message":    "Images fetched successfully",
		"data":       data,
		"pagination": pagination,
	})
}

// handleDecorate serves GET /api/decorate: the framed, captioned PNG
// derivative of one gallery image, at the source's native dimensions.
func (a *App) handleDecorate(c echo.Context) error {
	galleryID, err := galleryIDParam(c)
	if err != nil {
		return jsonMessage(c, http.StatusBadRequest, err.Error())
	}
	fileName := c.QueryParam("file")
	if fileName == "" {
		return jsonMessage(c, http.StatusBadRequest, "file query parameter is required")
	}

	if a.AdmitFile(c, galleryID, fileName, c.QueryParam("sig")) != nil {
		return jsonMessage(c, http.StatusForbidden, "Forbidden for this gallery")
	}

	gallery, err := a.Cache.GetGallery(galleryID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return jsonMessage(c, http.StatusNotFound, "Gallery not found")
		}
		return err
	}

	folder, status, err := a.resolvedFolder(gallery)
	if err != nil {
		return jsonMessage(c, status, err.Error())
	}
	if info, err := os.Stat(folder); err != nil || !info.IsDir() {
		return jsonMessage(c, http.StatusNotFound, "Gallery directory does not exist")
	}

	target, err := FileWithinFolder(folder, fileName)
	if err != nil {
		return jsonMessage(c, http.StatusBadRequest, "Invalid file path")
	}
	info, err := os.Stat(target)
	if err != nil || !info.Mode().IsRegular() {
		return jsonMessage(c, http.StatusNotFound, "Image not found")
	}

	f, err := os.Open(target)
	if err != nil {
		return err
	}
	base, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return jsonMessage(c, http.StatusUnprocessableEntity, "Invalid base image")
	}

	data, err := a.decorator.Decorate(base, strings.TrimSpace(gallery.Date))
	if err != nil {
		if errors.Is(err, ErrInvalidImage) {
			return jsonMessage(c, http.StatusUnprocessableEntity, "Invalid base image")
		}
		c.Logger().Errorf("decorate gallery %d file %s: %v", galleryID, fileName, err)
		return jsonMessage(c, http.StatusInternalServerError, "Unable to decorate image")
	}

	c.Response().Header().Set("Cache-Control", imageCacheControl)
	return c.Blob(http.StatusOK, "image/png", data)
}

func (a *App) handleLocale(c echo.Context) error {
	locale, err := ParseLocale(c.Param("locale"))
	if err != nil {
		return jsonMessage(c, http.StatusNotFound, "Unsupported locale")
	}
	messages, err := a.catalog.Messages(locale)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"locale":   locale,
		"messages": messages,
	})
}

func (a *App) handleEvents(c echo.Context) error {
	testMode := c.QueryParam("test") == "true"
	events, err := a.events.FetchLive(c.Request().Context(), testMode)
	if err != nil {
		if errors.Is(err, ErrEventsNotConfigured) {
			return jsonMessage(c, http.StatusInternalServerError,
				"Configuration Error: Missing API Token or Organization ID")
		}
		c.Logger().Errorf("fetch events: %v", err)
		return jsonMessage(c, http.StatusBadGateway, "Unable to fetch events")
	}
	return c.JSON(http.StatusOK, map[string]any{"events": events})
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

// handleRobots generates robots.txt dynamically; galleries and the admin
// dashboard stay out of crawlers.
func (a *App) handleRobots(c echo.Context) error {
	body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /admin/\nDisallow: /gallery/\nDisallow: /api/\n\nSitemap: %s/sitemap.xml\n", a.Config.URL)
	return c.String(http.StatusOK, body)
}

// galleryIDParam reads the required positive gallery id from galleryId,
// accepting the legacy gallery parameter name.
func galleryIDParam(c echo.Context) (int, error) {
	raw := c.QueryParam("galleryId")
	if raw == "" {
		raw = c.QueryParam("gallery")
	}
	if raw == "" {
		return 0, errors.New("galleryId query parameter is required")
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, errors.New("galleryId must be a positive number")
	}
	return id, nil
}

// galleryFolder loads the gallery record and resolves its photo folder,
// translating failures into the endpoint's status/message contract.
func (a *App) galleryFolder(c echo.Context, galleryID int) (string, int, error) {
	gallery, err := a.Cache.GetGallery(galleryID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", http.StatusNotFound, errors.New("Gallery not found")
		}
		return "", http.StatusInternalServerError, err
	}
	return a.resolvedFolder(gallery)
}

// resolvedFolder resolves a gallery's stored photo path against the
// galleries root. A stored path that is empty or escapes the root is a
// record problem (422), reported without echoing the path.
func (a *App) resolvedFolder(gallery Gallery) (string, int, error) {
	if strings.TrimSpace(gallery.PhotosPath) == "" {
		return "", http.StatusUnprocessableEntity, errors.New("Gallery has no photo directory configured")
	}
	folder, err := ResolveFolder(gallery.PhotosPath, a.Config.GalleriesDir)
	if err != nil {
		return "", http.StatusUnprocessableEntity, errors.New("Stored path is invalid")
	}
	return folder, 0, nil
}
