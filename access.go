package galengine

import (
	"errors"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const gallerySessionName = "gallery_session"

// Admission failures for gallery content.
var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("forbidden for this gallery")
)

// gallerySessionID returns the gallery-id claim of the visitor session, if
// the caller has unlocked a gallery.
func gallerySessionID(c echo.Context) (int, bool) {
	sess, err := session.Get(gallerySessionName, c)
	if err != nil {
		return 0, false
	}
	id, ok := sess.Values["galleryId"].(int)
	return id, ok && id > 0
}

func setGallerySession(c echo.Context, galleryID int) error {
	sess, err := session.Get(gallerySessionName, c)
	if err != nil {
		return err
	}
	sess.Values["galleryId"] = galleryID
	return sess.Save(c.Request(), c.Response())
}

// AdmitListing decides whether the caller may enumerate a gallery. Listing
// always requires a live session for the target gallery: a signed URL for
// some file never unlocks the whole listing.
func AdmitListing(c echo.Context, galleryID int) error {
	claim, ok := gallerySessionID(c)
	if !ok {
		return ErrUnauthenticated
	}
	if claim != galleryID {
		return ErrForbidden
	}
	return nil
}

// AdmitFile decides whether the caller may read one gallery file, admitting
// either a matching session claim or a valid signature. The dual path lets
// <img> tags load via shareable, cacheable signed URLs while the page-level
// listing stays session-bound.
func (a *App) AdmitFile(c echo.Context, galleryID int, fileName, signature string) error {
	if claim, ok := gallerySessionID(c); ok && claim == galleryID {
		return nil
	}
	if a.signer.Verify(galleryID, fileName, signature) {
		return nil
	}
	return ErrForbidden
}
