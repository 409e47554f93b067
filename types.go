package galengine

// Gallery is a private photo gallery record stored in SQLite. Visitors
// unlock a gallery with its shared password; PhotosPath names the on-disk
// folder holding its images, relative to the configured galleries root.
type Gallery struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Date       string `json:"date,omitempty"`
	PhotosPath string `json:"-"`
	Password   string `json:"-"`
	CreatedAt  string `json:"createdAt"`
}

// ImageAsset is one qualifying image in a gallery listing. It is derived
// from the filesystem on every request and never persisted: both URLs carry
// the gallery id, the URL-encoded file name, and an HMAC signature.
type ImageAsset struct {
	LargeURL     string `json:"largeURL"`
	ThumbnailURL string `json:"thumbnailURL"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
}

// AdminImage extends the listing payload with the raw file name and size
// for the admin dashboard.
type AdminImage struct {
	File         string `json:"file"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Size         int64  `json:"size"`
	ThumbnailURL string `json:"thumbnailURL"`
	LargeURL     string `json:"largeURL"`
}

// Pagination describes one page of a listing. Total always reflects the
// full filtered set, not the returned slice.
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"pageSize"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
}

// PublicImage is one image under the public uploads root.
type PublicImage struct {
	File      string `json:"file"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Size      int64  `json:"size"`
	URL       string `json:"url"`
	Directory string `json:"directory"`
}

// Translation is a single locale message override stored in SQLite.
type Translation struct {
	Locale string `json:"locale"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}
