package galengine

import (
	"bytes"
	"crypto/subtle"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	maxUploadSize    = 10 << 20 // 10MB
	maxUploadWidth   = 1600
	uploadQuality    = 85
	defaultUploadDir = "uploads"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(false, CsrfToken(c)))
	}
	galleries, err := a.Store.ListGalleries()
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminDashboard(galleries, CsrfToken(c)))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	if !a.loginLimiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	return Render(c, a.Views.AdminLogin(true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

// requireAdmin guards the admin JSON API.
func requireAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return jsonMessage(c, http.StatusUnauthorized, "Access denied")
	}
	return nil
}

// adminGallery is the dashboard payload: it exposes the stored photo path,
// which the public Gallery JSON never does. Passwords still stay server-side.
type adminGallery struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Date       string `json:"date"`
	PhotosPath string `json:"photosPath"`
	CreatedAt  string `json:"createdAt"`
}

func (a *App) handleAdminGalleryList(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	galleries, err := a.Store.ListGalleries()
	if err != nil {
		return err
	}
	data := make([]adminGallery, 0, len(galleries))
	for _, g := range galleries {
		data = append(data, adminGallery{
			ID:         g.ID,
			Title:      g.Title,
			Date:       g.Date,
			PhotosPath: g.PhotosPath,
			CreatedAt:  g.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"data": data})
}

type gallerySaveRequest struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Password   string `json:"password"`
	Date       string `json:"date"`
	PhotosPath string `json:"photosPath"`
}

func (a *App) handleAdminGallerySave(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	var req gallerySaveRequest
	if err := c.Bind(&req); err != nil {
		return jsonMessage(c, http.StatusBadRequest, "Invalid request body")
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return jsonMessage(c, http.StatusBadRequest, "Title is required")
	}

	gallery := Gallery{
		ID:         req.ID,
		Title:      req.Title,
		Password:   req.Password,
		Date:       strings.TrimSpace(req.Date),
		PhotosPath: strings.TrimSpace(req.PhotosPath),
	}
	if gallery.PhotosPath != "" {
		// Reject records that could never resolve inside the galleries root.
		if _, err := ResolveFolder(gallery.PhotosPath, a.Config.GalleriesDir); err != nil {
			return jsonMessage(c, http.StatusBadRequest, "Photos path escapes the galleries root")
		}
	}

	if req.ID == 0 {
		if gallery.Password == "" {
			return jsonMessage(c, http.StatusBadRequest, "Password is required")
		}
	} else {
		existing, err := a.Store.GetGallery(req.ID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return jsonMessage(c, http.StatusNotFound, "Gallery not found")
			}
			return err
		}
		if gallery.Password == "" {
			gallery.Password = existing.Password
		}
		gallery.CreatedAt = existing.CreatedAt
	}

	saved, err := a.Store.SaveGallery(gallery)
	if err != nil {
		return err
	}
	a.Cache.Invalidate()
	return c.JSON(http.StatusOK, map[string]any{
		"message": "Gallery saved",
		"data": adminGallery{
			ID:         saved.ID,
			Title:      saved.Title,
			Date:       saved.Date,
			PhotosPath: saved.PhotosPath,
			CreatedAt:  saved.CreatedAt,
		},
	})
}

func (a *App) handleAdminGalleryDelete(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return jsonMessage(c, http.StatusBadRequest, "Invalid gallery id")
	}
	if err := a.Store.DeleteGallery(id); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return jsonMessage(c, http.StatusOK, "Gallery deleted")
}

// handleAdminGalleryImages returns the full signed listing of a gallery's
// folder, unpaginated and with file names and sizes. A gallery without a
// folder yet lists as empty.
func (a *App) handleAdminGalleryImages(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	galleryID, err := galleryIDParam(c)
	if err != nil {
		return jsonMessage(c, http.StatusBadRequest, err.Error())
	}
	gallery, err := a.Store.GetGallery(galleryID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return jsonMessage(c, http.StatusNotFound, "Gallery not found")
		}
		return err
	}

	if strings.TrimSpace(gallery.PhotosPath) == "" {
		return c.JSON(http.StatusOK, map[string]any{"data": []AdminImage{}})
	}
	folder, err := ResolveFolder(gallery.PhotosPath, a.Config.GalleriesDir)
	if err != nil {
		return c.JSON(http.StatusOK, map[string]any{"data": []AdminImage{}})
	}

	entries, err := enumerateImages(folder)
	if err != nil {
		return err
	}
	data := make([]AdminImage, 0, len(entries))
	for _, entry := range entries {
		data = append(data, AdminImage{
			File:         entry.File,
			Width:        entry.Width,
			Height:       entry.Height,
			Size:         entry.Size,
			ThumbnailURL: a.signer.ImageURL(galleryID, entry.File),
			LargeURL:     a.signer.DecoratedURL(galleryID, entry.File),
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message": "Images fetched successfully",
		"data":    data,
	})
}

type galleryImageDeleteRequest struct {
	GalleryID int    `json:"galleryId"`
	File      string `json:"file"`
}

func (a *App) handleAdminGalleryImageDelete(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	var req galleryImageDeleteRequest
	if err := c.Bind(&req); err != nil {
		return jsonMessage(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.GalleryID <= 0 {
		return jsonMessage(c, http.StatusBadRequest, "Invalid gallery id")
	}
	req.File = strings.TrimSpace(req.File)
	if req.File == "" {
		return jsonMessage(c, http.StatusBadRequest, "File name is required")
	}

	gallery, err := a.Store.GetGallery(req.GalleryID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return jsonMessage(c, http.StatusNotFound, "Gallery not found")
		}
		return err
	}
	if strings.TrimSpace(gallery.PhotosPath) == "" {
		return jsonMessage(c, http.StatusUnprocessableEntity, "Gallery has no photo directory configured")
	}
	folder, err := ResolveFolder(gallery.PhotosPath, a.Config.GalleriesDir)
	if err != nil {
		return jsonMessage(c, http.StatusUnprocessableEntity, "Stored path is invalid")
	}
	if info, err := os.Stat(folder); err != nil || !info.IsDir() {
		return jsonMessage(c, http.StatusNotFound, "Gallery directory does not exist")
	}

	target, err := FileWithinFolder(folder, req.File)
	if err != nil {
		return jsonMessage(c, http.StatusBadRequest, "Invalid file name")
	}
	if info, err := os.Stat(target); err != nil || !info.Mode().IsRegular() {
		return jsonMessage(c, http.StatusNotFound, "File not found")
	}
	if err := os.Remove(target); err != nil {
		return err
	}
	return jsonMessage(c, http.StatusOK, fmt.Sprintf("Image %q deleted", req.File))
}

// publicDirAbs resolves a sanitized relative directory under the public root.
func (a *App) publicDirAbs(relative string) string {
	if relative == "" {
		return filepath.Clean(a.Config.PublicDir)
	}
	return filepath.Clean(filepath.Join(a.Config.PublicDir, relative))
}

// collectPublicDirs walks the public root up to maxDirectoryDepth levels,
// skipping dot-directories, and returns sorted relative paths (always
// including the root itself and the default upload dir).
func (a *App) collectPublicDirs() []string {
	seen := map[string]struct{}{"": {}, defaultUploadDir: {}}

	type stackItem struct {
		abs   string
		rel   string
		depth int
	}
	stack := []stackItem{{abs: filepath.Clean(a.Config.PublicDir), depth: 0}}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current.depth >= maxDirectoryDepth {
			continue
		}
		entries, err := os.ReadDir(current.abs)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			rel := entry.Name()
			if current.rel != "" {
				rel = current.rel + "/" + entry.Name()
			}
			abs := filepath.Join(current.abs, entry.Name())
			if !withinRoot(abs, a.Config.PublicDir) {
				continue
			}
			seen[rel] = struct{}{}
			stack = append(stack, stackItem{abs: abs, rel: rel, depth: current.depth + 1})
		}
	}

	dirs := make([]string, 0, len(seen))
	for d := range seen {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

// listPublicDirImages lists the image files directly inside one public
// directory with their dimensions and site-relative URLs.
func listPublicDirImages(absoluteDir, relativeDir string) []PublicImage {
	entries, err := os.ReadDir(absoluteDir)
	if err != nil {
		return nil
	}
	var images []PublicImage
	for _, entry := range entries {
		if entry.IsDir() || !isImageFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		w, h, err := decodeDimensions(filepath.Join(absoluteDir, entry.Name()))
		if err != nil || w == 0 || h == 0 {
			continue
		}
		relative := entry.Name()
		if relativeDir != "" {
			relative = relativeDir + "/" + entry.Name()
		}
		images = append(images, PublicImage{
			File:      entry.Name(),
			Width:     w,
			Height:    h,
			Size:      info.Size(),
			URL:       "/public/" + encodePathSegments(relative),
			Directory: relativeDir,
		})
	}
	sort.Slice(images, func(i, j int) bool { return images[i].File < images[j].File })
	return images
}

func encodePathSegments(relative string) string {
	parts := strings.Split(relative, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func (a *App) handleAdminPublicImages(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	relativeDir := resolveRelativeDir(c.QueryParams().Has("dir"), c.QueryParam("dir"))
	absoluteDir := a.publicDirAbs(relativeDir)
	if !withinRoot(absoluteDir, a.Config.PublicDir) {
		return jsonMessage(c, http.StatusBadRequest, "Invalid directory path")
	}

	var images []PublicImage
	if info, err := os.Stat(absoluteDir); err == nil && info.IsDir() {
		images = listPublicDirImages(absoluteDir, filepath.ToSlash(relativeDir))
	}
	if images == nil {
		images = []PublicImage{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message":     "Public images fetched successfully",
		"data":        images,
		"directories": a.collectPublicDirs(),
		"currentDir":  filepath.ToSlash(relativeDir),
	})
}

// resolveRelativeDir picks the target directory: the sanitized explicit
// value when the parameter is present, else the default upload dir.
func resolveRelativeDir(explicit bool, value string) string {
	if !explicit {
		return defaultUploadDir
	}
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || trimmed == "/" || trimmed == "." {
		return ""
	}
	return SanitizeRelativeDir(trimmed)
}

func (a *App) handleAdminPublicImageUpload(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	relativeDir := resolveRelativeDir(c.QueryParams().Has("dir") || c.FormValue("dir") != "", c.FormValue("dir"))
	absoluteDir := a.publicDirAbs(relativeDir)
	if !withinRoot(absoluteDir, a.Config.PublicDir) {
		return jsonMessage(c, http.StatusBadRequest, "Invalid directory path")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return jsonMessage(c, http.StatusBadRequest, "No image file provided")
	}
	if file.Size > maxUploadSize {
		return jsonMessage(c, http.StatusBadRequest, "File too large (max 10MB)")
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	img, _, err := image.Decode(src)
	if err != nil {
		return jsonMessage(c, http.StatusBadRequest, "Invalid image")
	}

	// Marketing assets are downscaled and re-encoded; originals stay with
	// the uploader.
	if img.Bounds().Dx() > maxUploadWidth {
		img = imaging.Resize(img, maxUploadWidth, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: uploadQuality}); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}

	if err := os.MkdirAll(absoluteDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	name := slugifyFilename(file.Filename) + ".jpg"
	target := filepath.Join(absoluteDir, name)
	if _, err := os.Stat(target); err == nil {
		name = fmt.Sprintf("%s-%s.jpg", slugifyFilename(file.Filename), uuid.NewString()[:8])
		target = filepath.Join(absoluteDir, name)
	}
	if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}

	relative := name
	if relativeDir != "" {
		relative = filepath.ToSlash(relativeDir) + "/" + name
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message": "Image uploaded",
		"data": PublicImage{
			File:      name,
			Width:     img.Bounds().Dx(),
			Height:    img.Bounds().Dy(),
			Size:      int64(buf.Len()),
			URL:       "/public/" + encodePathSegments(relative),
			Directory: filepath.ToSlash(relativeDir),
		},
	})
}

type publicImageDeleteRequest struct {
	Dir  string `json:"dir"`
	File string `json:"file"`
}

func (a *App) handleAdminPublicImageDelete(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	var req publicImageDeleteRequest
	if err := c.Bind(&req); err != nil {
		return jsonMessage(c, http.StatusBadRequest, "Invalid request body")
	}
	req.File = strings.TrimSpace(req.File)
	if req.File == "" {
		return jsonMessage(c, http.StatusBadRequest, "File name is required")
	}

	relativeDir := resolveRelativeDir(true, req.Dir)
	absoluteDir := a.publicDirAbs(relativeDir)
	if !withinRoot(absoluteDir, a.Config.PublicDir) {
		return jsonMessage(c, http.StatusBadRequest, "Invalid directory path")
	}
	if info, err := os.Stat(absoluteDir); err != nil || !info.IsDir() {
		return jsonMessage(c, http.StatusNotFound, "Directory not found")
	}

	target, err := FileWithinFolder(absoluteDir, req.File)
	if err != nil {
		return jsonMessage(c, http.StatusBadRequest, "Invalid file name")
	}
	if info, err := os.Stat(target); err != nil || !info.Mode().IsRegular() {
		return jsonMessage(c, http.StatusNotFound, "File not found")
	}
	if err := os.Remove(target); err != nil {
		return err
	}
	return jsonMessage(c, http.StatusOK, fmt.Sprintf("Image %q deleted", req.File))
}

func (a *App) handleAdminTranslationList(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	localeParam := c.QueryParam("locale")
	if localeParam != "" {
		if _, err := ParseLocale(localeParam); err != nil {
			return jsonMessage(c, http.StatusBadRequest, "Unsupported locale")
		}
	}
	translations, err := a.Store.ListTranslations(localeParam)
	if err != nil {
		return err
	}
	if translations == nil {
		translations = []Translation{}
	}
	return c.JSON(http.StatusOK, map[string]any{"data": translations})
}

func (a *App) handleAdminTranslationSave(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	var t Translation
	if err := c.Bind(&t); err != nil {
		return jsonMessage(c, http.StatusBadRequest, "Invalid request body")
	}
	if _, err := ParseLocale(t.Locale); err != nil {
		return jsonMessage(c, http.StatusBadRequest, "Unsupported locale")
	}
	t.Key = strings.TrimSpace(t.Key)
	if t.Key == "" {
		return jsonMessage(c, http.StatusBadRequest, "Key is required")
	}
	if err := a.Store.SaveTranslation(t); err != nil {
		return err
	}
	if err := a.catalog.Reload(); err != nil {
		return err
	}
	return jsonMessage(c, http.StatusOK, "Translation saved")
}

// slugifyFilename converts a filename (without extension) to a URL-safe slug.
func slugifyFilename(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if s := Slugify(base); s != "" {
		return s
	}
	return "image"
}
