package galengine

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc string `xml:"loc"`
}

// handleSitemap lists the home page once per locale. Locales are selected
// with the locale query parameter, not a path prefix, and private gallery
// views and the admin dashboard are deliberately absent.
func (a *App) handleSitemap(c echo.Context) error {
	home := BuildURL(a.Config.URL, "/")
	urls := []sitemapURL{{Loc: home}}
	for _, locale := range SupportedLocales {
		if locale == DefaultLocale {
			continue
		}
		urls = append(urls, sitemapURL{Loc: home + "?locale=" + string(locale)})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
