package galengine

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// adminLogin performs the dashboard login flow (CSRF token fetch, then a
// form POST) and returns the cookies an authenticated admin browser holds.
func adminLogin(t *testing.T, app *App) []*http.Cookie {
	t.Helper()

	// GET /admin/ issues the CSRF cookie alongside the login form.
	rec := doRequest(app, httptest.NewRequest(http.MethodGet, "/admin/", nil), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /admin/ returned %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	var csrf string
	for _, ck := range cookies {
		if ck.Name == "_csrf" {
			csrf = ck.Value
		}
	}
	if csrf == "" {
		t.Fatal("login page did not set a CSRF cookie")
	}

	form := url.Values{"password": {app.Config.AdminPassword}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-CSRF-Token", csrf)
	rec = doRequest(app, req, cookies)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login returned %d: %s", rec.Code, rec.Body.String())
	}
	return append(cookies, rec.Result().Cookies()...)
}

func TestAdminAPIRequiresSession(t *testing.T) {
	app := newHandlersApp(t)

	rec := doRequest(app, httptest.NewRequest(http.MethodGet, "/api/admin/galleries", nil), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("got %d, want 401: %s", rec.Code, rec.Body.String())
	}
}

func TestAdminLoginWrongPassword(t *testing.T) {
	app := newHandlersApp(t)

	rec := doRequest(app, httptest.NewRequest(http.MethodGet, "/admin/", nil), nil)
	cookies := rec.Result().Cookies()
	var csrf string
	for _, ck := range cookies {
		if ck.Name == "_csrf" {
			csrf = ck.Value
		}
	}

	form := url.Values{"password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-CSRF-Token", csrf)
	rec = doRequest(app, req, cookies)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "error=true") {
		t.Errorf("wrong password: %d %s", rec.Code, rec.Body.String())
	}
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == adminSessionName {
			t.Error("failed login must not set an admin session")
		}
	}
}

func TestAdminLoginRejectedWithoutCSRF(t *testing.T) {
	app := newHandlersApp(t)

	form := url.Values{"password": {app.Config.AdminPassword}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := doRequest(app, req, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("got %d, want 403", rec.Code)
	}
}

func TestAdminGalleryManagement(t *testing.T) {
	app := newHandlersApp(t)
	cookies := adminLogin(t, app)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/galleries", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-CSRF-Token", csrfValue(cookies))
		return doRequest(app, req, cookies)
	}

	if rec := post(`{"title":"","password":"pw"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("empty title got %d, want 400", rec.Code)
	}
	if rec := post(`{"title":"New","photosPath":"../escape","password":"pw"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("escaping photos path got %d, want 400", rec.Code)
	}
	if rec := post(`{"title":"New"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("new gallery without password got %d, want 400", rec.Code)
	}

	rec := post(`{"title":"Tournament","password":"pw","date":"May 2025","photosPath":"tournament"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("create got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Data adminGallery `json:"data"`
	}
	decodeJSON(t, rec, &created)
	if created.Data.ID == 0 || created.Data.PhotosPath != "tournament" {
		t.Fatalf("created = %+v", created.Data)
	}

	// Updating without a password keeps the existing one.
	rec = post(fmt.Sprintf(`{"id":%d,"title":"Tournament Finals"}`, created.Data.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("update got %d: %s", rec.Code, rec.Body.String())
	}
	stored, err := app.Store.GetGallery(created.Data.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Title != "Tournament Finals" || stored.Password != "pw" {
		t.Errorf("after update: %+v", stored)
	}

	list := doRequest(app, httptest.NewRequest(http.MethodGet, "/api/admin/galleries", nil), cookies)
	if list.Code != http.StatusOK || !strings.Contains(list.Body.String(), `"photosPath":"tournament"`) {
		t.Errorf("admin list: %d %s", list.Code, list.Body.String())
	}

	req := httptest.NewRequest(http.MethodDelete,
		fmt.Sprintf("/api/admin/galleries/%d", created.Data.ID), nil)
	req.Header.Set("X-CSRF-Token", csrfValue(cookies))
	if rec := doRequest(app, req, cookies); rec.Code != http.StatusOK {
		t.Errorf("delete got %d: %s", rec.Code, rec.Body.String())
	}
	if _, err := app.Store.GetGallery(created.Data.ID); err == nil {
		t.Error("gallery still present after delete")
	}
}

func csrfValue(cookies []*http.Cookie) string {
	for _, ck := range cookies {
		if ck.Name == "_csrf" {
			return ck.Value
		}
	}
	return ""
}

func TestAdminGalleryImages(t *testing.T) {
	app := newHandlersApp(t)
	cookies := adminLogin(t, app)
	g := seedGallery(t, app, "Summer", "pw", "summer")

	rec := doRequest(app, httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/admin/gallery-images?galleryId=%d", g.ID), nil), cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Data []AdminImage `json:"data"`
	}
	decodeJSON(t, rec, &body)
	if len(body.Data) != 2 || body.Data[0].File != "a.jpg" || body.Data[1].File != "b.png" {
		t.Errorf("admin listing = %+v", body.Data)
	}
	if body.Data[0].Size <= 0 || !strings.Contains(body.Data[0].ThumbnailURL, "sig=") {
		t.Errorf("first entry = %+v", body.Data[0])
	}

	// No folder configured yet: empty, not an error.
	empty := seedGallery(t, app, "Draft", "pw", "")
	rec = doRequest(app, httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/admin/gallery-images?galleryId=%d", empty.ID), nil), cookies)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Errorf("empty gallery: %d %s", rec.Code, rec.Body.String())
	}
}

func TestAdminPublicImageUpload(t *testing.T) {
	app := newHandlersApp(t)
	cookies := adminLogin(t, app)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "Team Photo.png")
	if err != nil {
		t.Fatal(err)
	}
	img := solidBase(50, 40, captionColor)
	if err := jpeg.Encode(part, img, nil); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/public-images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-CSRF-Token", csrfValue(cookies))
	rec := doRequest(app, req, cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Data PublicImage `json:"data"`
	}
	decodeJSON(t, rec, &body)
	if body.Data.File != "team-photo.jpg" || body.Data.Directory != "uploads" {
		t.Errorf("uploaded = %+v", body.Data)
	}
	if _, err := os.Stat(filepath.Join(app.Config.PublicDir, "uploads", body.Data.File)); err != nil {
		t.Errorf("uploaded file missing on disk: %v", err)
	}

	// A second upload with the same name gets a suffixed, unique name.
	var buf2 bytes.Buffer
	mw = multipart.NewWriter(&buf2)
	part, _ = mw.CreateFormFile("image", "Team Photo.png")
	if err := jpeg.Encode(part, img, nil); err != nil {
		t.Fatal(err)
	}
	mw.Close()
	req = httptest.NewRequest(http.MethodPost, "/api/admin/public-images", &buf2)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-CSRF-Token", csrfValue(cookies))
	rec = doRequest(app, req, cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("second upload got %d: %s", rec.Code, rec.Body.String())
	}
	decodeJSON(t, rec, &body)
	if body.Data.File == "team-photo.jpg" || !strings.HasPrefix(body.Data.File, "team-photo-") {
		t.Errorf("collision name = %q", body.Data.File)
	}
}

func TestAdminPublicImagesListing(t *testing.T) {
	app := newHandlersApp(t)
	cookies := adminLogin(t, app)

	banners := filepath.Join(app.Config.PublicDir, "banners")
	if err := os.MkdirAll(banners, 0o755); err != nil {
		t.Fatal(err)
	}
	writeTestPNG(t, filepath.Join(banners, "hero.png"), 30, 20)

	rec := doRequest(app, httptest.NewRequest(http.MethodGet,
		"/api/admin/public-images?dir=banners", nil), cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Data        []PublicImage `json:"data"`
		Directories []string      `json:"directories"`
		CurrentDir  string        `json:"currentDir"`
	}
	decodeJSON(t, rec, &body)
	if body.CurrentDir != "banners" || len(body.Data) != 1 || body.Data[0].URL != "/public/banners/hero.png" {
		t.Errorf("listing = %+v", body)
	}
	var sawBanners, sawUploads bool
	for _, d := range body.Directories {
		sawBanners = sawBanners || d == "banners"
		sawUploads = sawUploads || d == "uploads"
	}
	if !sawBanners || !sawUploads {
		t.Errorf("directories = %v", body.Directories)
	}

	// Traversal in dir sanitizes down to safe segments.
	rec = doRequest(app, httptest.NewRequest(http.MethodGet,
		"/api/admin/public-images?dir=../../etc", nil), cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("traversal dir got %d", rec.Code)
	}
	decodeJSON(t, rec, &body)
	if body.CurrentDir != "etc" {
		t.Errorf("currentDir = %q, want sanitized %q", body.CurrentDir, "etc")
	}
}

func TestAdminTranslations(t *testing.T) {
	app := newHandlersApp(t)
	cookies := adminLogin(t, app)

	put := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/admin/translations", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-CSRF-Token", csrfValue(cookies))
		return doRequest(app, req, cookies)
	}

	if rec := put(`{"locale":"de","key":"nav.home","value":"Start"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("unsupported locale got %d, want 400", rec.Code)
	}
	if rec := put(`{"locale":"fr","key":"","value":"x"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("empty key got %d, want 400", rec.Code)
	}
	if rec := put(`{"locale":"fr","key":"nav.home","value":"Accueil perso"}`); rec.Code != http.StatusOK {
		t.Fatalf("save got %d: %s", rec.Code, rec.Body.String())
	}

	// The override is visible through the public locale endpoint immediately.
	rec := doRequest(app, httptest.NewRequest(http.MethodGet, "/api/locales/fr", nil), cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("locale fetch got %d", rec.Code)
	}
	var body struct {
		Messages map[string]string `json:"messages"`
	}
	decodeJSON(t, rec, &body)
	if body.Messages["nav.home"] != "Accueil perso" {
		t.Errorf("nav.home = %q, want override", body.Messages["nav.home"])
	}

	list := doRequest(app, httptest.NewRequest(http.MethodGet,
		"/api/admin/translations?locale=fr", nil), cookies)
	if list.Code != http.StatusOK || !strings.Contains(list.Body.String(), "Accueil perso") {
		t.Errorf("translation list: %d %s", list.Code, list.Body.String())
	}

	unsupported := doRequest(app, httptest.NewRequest(http.MethodGet,
		"/api/admin/translations?locale=xx", nil), cookies)
	if unsupported.Code != http.StatusBadRequest {
		t.Errorf("unsupported list locale got %d, want 400", unsupported.Code)
	}
}
