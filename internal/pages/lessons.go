// Package pages renders the course lessons and serves the site's HTML pages.
package pages

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"
)

//go:embed content
var contentFS embed.FS

// LessonGlob matches lesson sources inside the content filesystem.
const LessonGlob = "content/lessons/**/*.md"

// Lesson is one rendered page of the course.
type Lesson struct {
	ID      string
	Title   string
	Heading string
	Order   int
	Demos   []string
	Summary string
	// Text is the markdown with formatting stripped, used for search.
	Text string
	HTML template.HTML
}

type frontMatter struct {
	ID      string   `yaml:"id"`
	Title   string   `yaml:"title"`
	Heading string   `yaml:"heading"`
	Order   int      `yaml:"order"`
	Demos   []string `yaml:"demos"`
}

// Library holds every lesson in reading order.
type Library struct {
	lessons []*Lesson
	byID    map[string]*Lesson
}

// LoadEmbedded loads the lessons compiled into the binary.
func LoadEmbedded() (*Library, error) {
	return Load(contentFS, LessonGlob)
}

// Load renders every markdown file in fsys matching pattern.
func Load(fsys fs.FS, pattern string) (*Library, error) {
	paths, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("globbing lessons: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no lessons match %s", pattern)
	}

	md := newMarkdown()
	lib := &Library{byID: make(map[string]*Lesson)}
	for _, p := range paths {
		src, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		l, err := parseLesson(md, p, src)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", p, err)
		}
		if _, dup := lib.byID[l.ID]; dup {
			return nil, fmt.Errorf("duplicate lesson id %q in %s", l.ID, p)
		}
		lib.byID[l.ID] = l
		lib.lessons = append(lib.lessons, l)
	}
	sort.SliceStable(lib.lessons, func(i, j int) bool { return lib.lessons[i].Order < lib.lessons[j].Order })
	return lib, nil
}

// Get returns a lesson by ID.
func (l *Library) Get(id string) (*Lesson, bool) {
	lesson, ok := l.byID[id]
	return lesson, ok
}

// All returns the lessons in reading order.
func (l *Library) All() []*Lesson {
	return l.lessons
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
}

func parseLesson(md goldmark.Markdown, p string, src []byte) (*Lesson, error) {
	meta, body := splitFrontMatter(src)
	var fm frontMatter
	if len(meta) > 0 {
		if err := yaml.Unmarshal(meta, &fm); err != nil {
			return nil, fmt.Errorf("front matter: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := md.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}

	l := &Lesson{
		ID:      fm.ID,
		Title:   fm.Title,
		Heading: fm.Heading,
		Order:   fm.Order,
		Demos:   fm.Demos,
		HTML:    template.HTML(buf.String()),
	}
	if l.ID == "" {
		l.ID = strings.TrimSuffix(path.Base(p), ".md")
	}
	heading, summary, text := scanBody(body)
	if l.Heading == "" {
		l.Heading = heading
	}
	if l.Heading == "" {
		l.Heading = l.ID
	}
	if l.Title == "" {
		l.Title = l.Heading + " – Yavin"
	}
	l.Summary = summary
	l.Text = text
	return l, nil
}

// splitFrontMatter separates a leading "---" delimited YAML block from the
// markdown body.
func splitFrontMatter(src []byte) (meta, body []byte) {
	const delim = "---"
	if !bytes.HasPrefix(src, []byte(delim+"\n")) {
		return nil, src
	}
	rest := src[len(delim)+1:]
	end := bytes.Index(rest, []byte("\n"+delim))
	if end < 0 {
		return nil, src
	}
	meta = rest[:end]
	body = rest[end+len(delim)+1:]
	return meta, bytes.TrimLeft(body, "\n")
}

// scanBody pulls the first H1, the first paragraph line after it and a plain
// text rendering of the whole body.
func scanBody(body []byte) (heading, summary, text string) {
	var words []string
	inFence := false
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "```") {
			inFence = !inFence
			continue
		}
		if line == "" {
			continue
		}
		if !inFence {
			if heading == "" && strings.HasPrefix(line, "# ") {
				heading = strings.TrimPrefix(line, "# ")
			} else if heading != "" && summary == "" && !strings.HasPrefix(line, "#") {
				summary = plain(line)
			}
		}
		words = append(words, plain(line))
	}
	return heading, summary, strings.Join(words, " ")
}

var markup = strings.NewReplacer("**", "", "`", "", "#", "", "|", " ", "*", "", "_", " ")

func plain(line string) string {
	line = strings.TrimLeft(line, "-0123456789. ")
	return strings.Join(strings.Fields(markup.Replace(line)), " ")
}
