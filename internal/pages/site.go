package pages

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yavin-ai/yavin/internal/accounts"
	"github.com/yavin-ai/yavin/internal/tracking"
)

// HomeID is the lesson served at "/".
const HomeID = "home"

// Site renders lessons into full HTML pages.
type Site struct {
	lib   *Library
	users *accounts.Store
	tmpl  *template.Template
	theme string
}

type navItem struct {
	Heading   string
	Href      string
	Active    bool
	Completed bool
}

type pageData struct {
	Title      string
	PageID     string
	Theme      string
	Content    template.HTML
	Nav        []navItem
	Demos      []string
	User       *accounts.User
	Completion int
	Trackable  bool
	CSS        template.CSS
	Script     template.JS
}

// NewSite prepares the page template. users may be nil, in which case every
// visitor is treated as anonymous.
func NewSite(lib *Library, users *accounts.Store, theme string) (*Site, error) {
	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}
	if theme == "" {
		theme = "light"
	}
	return &Site{lib: lib, users: users, tmpl: tmpl, theme: theme}, nil
}

// RegisterRoutes mounts "/" and one route per lesson.
func RegisterRoutes(r chi.Router, site *Site) {
	r.Get("/", site.handlePage(HomeID))
	r.Get("/{page}", func(w http.ResponseWriter, r *http.Request) {
		site.handlePage(chi.URLParam(r, "page"))(w, r)
	})
}

func href(id string) string {
	if id == HomeID {
		return "/"
	}
	return "/" + id
}

func (s *Site) handlePage(id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lesson, ok := s.lib.Get(id)
		if !ok {
			http.NotFound(w, r)
			return
		}

		var buf bytes.Buffer
		if err := s.render(r, lesson, &buf); err != nil {
			log.Printf("pages: rendering %s: %v", id, err)
			http.Error(w, "Template error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(buf.Bytes())
	}
}

func (s *Site) render(r *http.Request, lesson *Lesson, buf *bytes.Buffer) error {
	_, trackable := tracking.LookupSection(lesson.ID)
	data := pageData{
		Title:     lesson.Title,
		PageID:    lesson.ID,
		Theme:     s.theme,
		Content:   lesson.HTML,
		Demos:     lesson.Demos,
		Trackable: trackable,
		CSS:       template.CSS(pageCSS),
		Script:    template.JS(pageScript),
	}
	if t := r.URL.Query().Get("theme"); t == "light" || t == "dark" {
		data.Theme = t
	}

	completed := map[string]bool{}
	if u := accounts.CurrentUser(r.Context()); u != nil {
		data.User = u
		if s.users != nil {
			progress, err := s.users.Progress(r.Context(), u.ID)
			if err != nil {
				log.Printf("pages: %v", err)
			}
			n := 0
			for _, p := range progress {
				if p.Completed {
					completed[p.SectionID] = true
					n++
				}
			}
			data.Completion = tracking.CompletionPercent(n)
		}
	}

	for _, l := range s.lib.All() {
		data.Nav = append(data.Nav, navItem{
			Heading:   l.Heading,
			Href:      href(l.ID),
			Active:    l.ID == lesson.ID,
			Completed: completed[l.ID],
		})
	}
	return s.tmpl.Execute(buf, data)
}
