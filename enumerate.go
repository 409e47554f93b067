package galengine

import (
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	// Register decoders for every extension the enumerator accepts, so
	// dimensions come from actual file bytes rather than trusted metadata.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// imagePageSize is the fixed page size of gallery listings.
const imagePageSize = 20

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {},
	".gif": {}, ".bmp": {}, ".tiff": {}, ".tif": {},
}

func isImageFile(name string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// imageEntry is one enumerated gallery file before it is shaped into a
// public or admin payload.
type imageEntry struct {
	File   string
	Width  int
	Height int
	Size   int64
}

// enumerateImages lists the qualifying image files of folder in ascending
// file-name order. Non-image extensions, non-regular files, and files whose
// pixel dimensions cannot be decoded are skipped; per-file decode failures
// are logged by the caller's request logger, never fatal. A missing or
// non-directory folder yields an empty slice: brand-new galleries have no
// folder yet and that is not an error.
func enumerateImages(folder string) ([]imageEntry, error) {
	info, err := os.Stat(folder)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, err
	}

	var images []imageEntry
	for _, entry := range entries {
		if entry.IsDir() || !isImageFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		w, h, err := decodeDimensions(filepath.Join(folder, entry.Name()))
		if err != nil || w == 0 || h == 0 {
			continue
		}
		images = append(images, imageEntry{
			File:   entry.Name(),
			Width:  w,
			Height: h,
			Size:   info.Size(),
		})
	}

	sort.Slice(images, func(i, j int) bool {
		return images[i].File < images[j].File
	})
	return images, nil
}

// decodeDimensions reads just enough of the file to decode its pixel
// dimensions.
func decodeDimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// paginate slices entries into the requested 1-based page and describes the
// full set. Pages beyond the end are empty, not errors.
func paginate(entries []imageEntry, page int) ([]imageEntry, Pagination) {
	total := len(entries)
	totalPages := (total + imagePageSize - 1) / imagePageSize
	start := (page - 1) * imagePageSize
	end := start + imagePageSize
	var slice []imageEntry
	if start < total {
		if end > total {
			end = total
		}
		slice = entries[start:end]
	}
	return slice, Pagination{
		Page:       page,
		PageSize:   imagePageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    start+imagePageSize < total,
	}
}
