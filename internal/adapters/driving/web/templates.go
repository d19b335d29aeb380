package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/graphcal/internal/logger"
)

//go:embed templates/*.html
var templatesFS embed.FS

const layoutTemplate = "layout.html"

// pageTemplates are rendered inside the layout.
var pageTemplates = []string{"home.html", "calendar.html", "new_event.html", "error.html"}

// Templates holds the parsed page set. When loaded from a directory it can be
// reloaded on change; renders always see a complete set.
type Templates struct {
	mu    sync.RWMutex
	pages map[string]*template.Template
	dir   string
}

// NewTemplates parses the embedded templates, or those in dir when set.
func NewTemplates(dir string) (*Templates, error) {
	t := &Templates{dir: dir}
	if err := t.Reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// Reload re-parses the template set. On failure the previous set is kept.
func (t *Templates) Reload() error {
	var fsys fs.FS
	if t.dir != "" {
		fsys = os.DirFS(t.dir)
	} else {
		sub, err := fs.Sub(templatesFS, "templates")
		if err != nil {
			return err
		}
		fsys = sub
	}

	pages, err := parsePages(fsys)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.pages = pages
	t.mu.Unlock()
	return nil
}

func parsePages(fsys fs.FS) (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageTemplates))
	for _, page := range pageTemplates {
		tmpl, err := template.New(layoutTemplate).ParseFS(fsys, layoutTemplate, page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse templates: %w", err)
		}
		pages[page] = tmpl
	}
	return pages, nil
}

// Render executes page inside the layout. Output is buffered so a failing
// template never writes a partial page.
func (t *Templates) Render(w io.Writer, page string, data any) error {
	t.mu.RLock()
	tmpl, ok := t.pages[page]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown template %q", page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layoutTemplate, data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Watch reloads the templates whenever a file in the template directory
// changes, until ctx is done. It returns immediately for embedded templates.
func (t *Templates) Watch(ctx context.Context) error {
	if t.dir == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create template watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(t.dir); err != nil {
		return fmt.Errorf("watch %s: %w", t.dir, err)
	}
	logger.Debug("web: watching templates in %s", t.dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".html") {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := t.Reload(); err != nil {
				logger.Error("web: reload templates after %s: %v", event.Name, err)
				continue
			}
			logger.Info("web: reloaded templates after change to %s", filepath.Base(event.Name))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("web: template watcher: %v", err)
		}
	}
}
