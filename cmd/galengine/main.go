// Command galengine runs a gallery site with minimal built-in views.
// Production deployments are expected to import the galengine package and
// supply their own templ components; this binary is the working reference
// wiring.
package main

import (
	"context"
	"fmt"
	"html"
	"io"
	"log"
	"strings"

	"github.com/a-h/templ"
	"github.com/joho/godotenv"

	"github.com/eringen/galengine"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := galengine.SiteConfig{
		Name:            galengine.EnvOr("SITE_NAME", "Gallery"),
		URL:             strings.TrimSuffix(galengine.EnvOr("SITE_URL", "http://localhost:3000"), "/"),
		Addr:            galengine.EnvOr("ADDR", ":3000"),
		DatabasePath:    galengine.EnvOr("DATABASE_PATH", "data/galleries.db"),
		GalleriesDir:    galengine.EnvOr("GALLERIES_FOLDER", "public"),
		PublicDir:       galengine.EnvOr("PUBLIC_FOLDER", "public"),
		FramePath:       galengine.EnvOr("FRAME_PATH", galengine.DefaultFramePath),
		AdminPassword:   galengine.MustEnv("ADMIN_PASSWORD"),
		SessionSecret:   galengine.MustEnv("SESSION_SECRET"),
		SigningSecret:   galengine.EnvOr("IMAGE_SIGNATURE_SECRET", ""),
		CookieSecure:    strings.EqualFold(galengine.EnvOr("COOKIE_SECURE", ""), "true"),
		EventbriteToken: galengine.EnvOr("EVENT_BRITE_TOKEN", ""),
		EventbriteOrgID: galengine.EnvOr("EVENT_BRITE_ORGANIZATION_ID", ""),
	}

	app := galengine.New(cfg, defaultViews())
	defer app.Close()

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

// defaultViews renders bare-bones HTML pages. Site owners replace these
// with their own templ components.
func defaultViews() galengine.ViewFuncs {
	page := func(title, body string) templ.Component {
		return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			_, err := fmt.Fprintf(w,
				"<!doctype html><html><head><title>%s</title></head><body>%s</body></html>",
				html.EscapeString(title), body)
			return err
		})
	}

	return galengine.ViewFuncs{
		Home: func(galleries []galengine.Gallery, locale galengine.Locale, messages map[string]string) templ.Component {
			var b strings.Builder
			fmt.Fprintf(&b, "<h1>%s</h1><ul>", html.EscapeString(messages["home.title"]))
			for _, g := range galleries {
				fmt.Fprintf(&b, `<li><a href="/gallery/%d/?locale=%s">%s</a></li>`,
					g.ID, locale, html.EscapeString(g.Title))
			}
			b.WriteString("</ul>")
			return page(messages["home.title"], b.String())
		},
		GalleryView: func(gallery galengine.Gallery, authenticated bool, locale galengine.Locale, messages map[string]string) templ.Component {
			var b strings.Builder
			fmt.Fprintf(&b, "<h1>%s</h1>", html.EscapeString(gallery.Title))
			if authenticated {
				fmt.Fprintf(&b, `<div id="photos" data-gallery="%d"></div>`, gallery.ID)
			} else {
				fmt.Fprintf(&b,
					`<form id="connect"><label>%s</label>`+
						`<input type="password" id="pw"><button>%s</button></form>`+
					`<script>document.getElementById("connect").onsubmit=async e=>{`+
						`e.preventDefault();`+
						`const r=await fetch("/api/connect",{method:"POST",`+
						`headers:{"Content-Type":"application/json"},`+
						`body:JSON.stringify({id:%d,password:document.getElementById("pw").value})});`+
						`if(r.ok)location.reload();};</script>`,
					html.EscapeString(messages["gallery.password.label"]),
					html.EscapeString(messages["gallery.password.submit"]),
					gallery.ID)
			}
			return page(gallery.Title, b.String())
		},
		AdminLogin: func(showError bool, csrfToken string) templ.Component {
			body := `<form method="post" action="/admin/login/">` +
				`<input type="hidden" name="_csrf" value="` + html.EscapeString(csrfToken) + `">` +
				`<input type="password" name="password"><button>Login</button></form>`
			if showError {
				body = "<p>Wrong password.</p>" + body
			}
			return page("Admin", body)
		},
		AdminDashboard: func(galleries []galengine.Gallery, csrfToken string) templ.Component {
			var b strings.Builder
			b.WriteString("<h1>Galleries</h1><ul>")
			for _, g := range galleries {
				fmt.Fprintf(&b, "<li>#%d %s</li>", g.ID, html.EscapeString(g.Title))
			}
			b.WriteString("</ul>")
			return page("Admin", b.String())
		},
		NotFound: func() templ.Component {
			return page("Not found", "<h1>404</h1>")
		},
		ServerError: func() templ.Component {
			return page("Error", "<h1>Something went wrong</h1>")
		},
	}
}
