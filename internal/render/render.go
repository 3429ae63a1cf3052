// Package render implements gin's HTMLRender over the embedded page templates.
//
// Every page is parsed together with the layout set, so each page can define its own
// "content" block and still share the header and footer.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"recipeshare/internal/format"

	ginrender "github.com/gin-gonic/gin/render"
)

//go:embed templates static
var files embed.FS

const layoutName = "layout"

// Renderer holds one template set per page.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses the embedded templates. now is used by relative-time helpers; nil means time.Now.
func New(now func() time.Time) (*Renderer, error) {
	if now == nil {
		now = time.Now
	}
	base, err := template.New(layoutName).Funcs(Funcs(now)).ParseFS(files, "templates/layout/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("render: parse layout: %w", err)
	}
	pageFiles, err := fs.Glob(files, "templates/pages/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("render: list pages: %w", err)
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(pageFiles))}
	for _, f := range pageFiles {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("render: clone layout: %w", err)
		}
		if _, err := t.ParseFS(files, f); err != nil {
			return nil, fmt.Errorf("render: parse %s: %w", f, err)
		}
		r.pages[strings.TrimSuffix(path.Base(f), ".tmpl")] = t
	}
	return r, nil
}

// Has reports whether a page template exists.
func (r *Renderer) Has(page string) bool {
	_, ok := r.pages[page]
	return ok
}

// Instance implements gin's render.HTMLRender.
func (r *Renderer) Instance(page string, data any) ginrender.Render {
	t, ok := r.pages[page]
	if !ok {
		return missingPage(page)
	}
	return ginrender.HTML{Template: t, Name: layoutName, Data: data}
}

type missingPage string

func (m missingPage) Render(http.ResponseWriter) error {
	return fmt.Errorf("render: no page template %q", string(m))
}

func (missingPage) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}

// Static returns the embedded stylesheet directory for mounting under /static.
func Static() http.FileSystem {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// Funcs are the helpers available to every template.
func Funcs(now func() time.Time) template.FuncMap {
	return template.FuncMap{
		"timeAgo":  func(t time.Time) string { return format.TimeAgo(t, now()) },
		"compact":  format.CompactNumber,
		"cookTime": format.CookTime,
		"initials": format.Initials,
		"truncate": format.Truncate,
		"plural":   format.Plural,
		"recipeURL": func(id int64) string {
			return "/recipe/" + strconv.FormatInt(id, 10)
		},
		"profileURL": func(username string) string {
			return "/profile/" + url.PathEscape(username)
		},
		"add": func(a, b int) int { return a + b },
	}
}
