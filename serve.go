package galengine

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
)

// imageCacheControl is the cache lifetime for raw and decorated image
// responses. Short on purpose: the decorated derivative can change content
// at the same URL shape when the frame or caption changes.
const imageCacheControl = "public, max-age=60"

var mimeByExtension = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
}

func mimeType(path string) string {
	if m, ok := mimeByExtension[strings.ToLower(filepath.Ext(path))]; ok {
		return m
	}
	return "application/octet-stream"
}

// serveImageFile streams the exact bytes of one gallery file after
// re-validating that the requested name stays inside the resolved folder.
// Traversal attempts are rejected before any filesystem call.
func serveImageFile(c echo.Context, folder, fileName string) error {
	target, err := FileWithinFolder(folder, fileName)
	if err != nil {
		return jsonMessage(c, http.StatusBadRequest, "Invalid file path")
	}

	info, err := os.Stat(target)
	if err != nil || !info.Mode().IsRegular() {
		return jsonMessage(c, http.StatusNotFound, "Image not found")
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return err
	}
	c.Response().Header().Set("Cache-Control", imageCacheControl)
	return c.Blob(http.StatusOK, mimeType(target), data)
}

// jsonMessage writes the engine's uniform JSON error/ack body.
func jsonMessage(c echo.Context, code int, message string) error {
	return c.JSON(code, map[string]string{"message": message})
}
