package galengine

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Render writes a view component as a 200 HTML page.
func Render(c echo.Context, view templ.Component) error {
	return RenderStatus(c, http.StatusOK, view)
}

// RenderStatus writes a view component under an explicit status code, which
// the error handler needs for the 404 and 500 pages. The component streams
// straight into the response writer; nothing is buffered.
func RenderStatus(c echo.Context, code int, view templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return view.Render(c.Request().Context(), c.Response().Writer)
}
