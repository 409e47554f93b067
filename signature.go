package galengine

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
)

// Signer computes HMAC-SHA256 signatures binding a gallery id to a file
// name. A signed URL authorizes exactly one file independently of session
// state, so gallery images can be loaded, cached, and shared without
// cookies. The signature covers gallery+file only, not the endpoint and not
// an expiry, so a signed URL is interchangeable between the raw and
// decorated endpoints and never expires.
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer keyed with the given secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns the URL-safe, unpadded base64 HMAC-SHA256 of
// "{galleryId}:{fileName}".
func (s *Signer) Sign(galleryID int, fileName string) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%d:%s", galleryID, fileName)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature authorizes (galleryID, fileName). The
// comparison is constant-time; malformed or absent signatures verify false.
func (s *Signer) Verify(galleryID int, fileName, signature string) bool {
	if signature == "" {
		return false
	}
	expected := s.Sign(galleryID, fileName)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// ImageURL builds the signed raw-image (thumbnail) URL for a gallery file.
func (s *Signer) ImageURL(galleryID int, fileName string) string {
	return fmt.Sprintf("/api/images?galleryId=%d&file=%s&sig=%s",
		galleryID, url.QueryEscape(fileName), s.Sign(galleryID, fileName))
}

// DecoratedURL builds the signed decorated-image URL for a gallery file.
func (s *Signer) DecoratedURL(galleryID int, fileName string) string {
	return fmt.Sprintf("/api/decorate?galleryId=%d&file=%s&sig=%s",
		galleryID, url.QueryEscape(fileName), s.Sign(galleryID, fileName))
}
