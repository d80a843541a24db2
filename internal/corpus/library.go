package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/net/html"
)

// UnknownBookError reports a book title that cannot be resolved to any
// file in the library. Fatal for the affected case, never for the batch.
type UnknownBookError struct {
	Book      string
	Available []string
}

func (e *UnknownBookError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unknown book %q: library contains no books", e.Book)
	}
	return fmt.Sprintf("unknown book %q: available books: %s", e.Book, strings.Join(e.Available, ", "))
}

// Library resolves book titles to raw text from a directory of .txt or
// .html files. Loaded text is cached because several cases in a batch
// usually share a book.
type Library struct {
	dir   string
	cache *gocache.Cache
}

// NewLibrary creates a library over the given directory.
func NewLibrary(dir string, cacheTTL time.Duration) *Library {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Minute
	}
	return &Library{
		dir:   dir,
		cache: gocache.New(cacheTTL, 2*cacheTTL),
	}
}

// Available returns the sorted book titles (file stems) in the library.
func (l *Library) Available() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read books directory %s: %w", l.dir, err)
	}

	var stems []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".txt" && ext != ".html" {
			continue
		}
		stems = append(stems, strings.TrimSuffix(name, filepath.Ext(name)))
	}
	sort.Strings(stems)
	return stems, nil
}

// Load returns the full text of a book by title. Exact filename match is
// tried first, then a case-insensitive match over file stems.
func (l *Library) Load(book string) (string, error) {
	book = strings.TrimSpace(book)
	if book == "" {
		return "", fmt.Errorf("book title is empty")
	}

	if cached, found := l.cache.Get(book); found {
		return cached.(string), nil
	}

	path, err := l.resolve(book)
	if err != nil {
		return "", err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read book %s: %w", path, err)
	}

	text := string(raw)
	if strings.EqualFold(filepath.Ext(path), ".html") {
		text, err = stripHTML(text)
		if err != nil {
			return "", fmt.Errorf("parse HTML book %s: %w", path, err)
		}
	}

	l.cache.Set(book, text, gocache.DefaultExpiration)
	return text, nil
}

// resolve maps a book title to a file path.
func (l *Library) resolve(book string) (string, error) {
	for _, ext := range []string{".txt", ".html"} {
		exact := filepath.Join(l.dir, book+ext)
		if info, err := os.Stat(exact); err == nil && !info.IsDir() {
			return exact, nil
		}
	}

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return "", fmt.Errorf("read books directory %s: %w", l.dir, err)
	}

	target := strings.ToLower(book)
	var stems []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".txt" && ext != ".html" {
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		stems = append(stems, stem)
		if strings.ToLower(stem) == target {
			return filepath.Join(l.dir, name), nil
		}
	}
	sort.Strings(stems)

	return "", &UnknownBookError{Book: book, Available: stems}
}

// stripHTML extracts visible text from an HTML document, skipping
// script/style/noscript/iframe subtrees.
func stripHTML(content string) (string, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.TrimSpace(buf.String()), nil
}
