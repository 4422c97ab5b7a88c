package postindex

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"slices"
	"strings"
	"sync"
)

// Site supplies the templates pages are parsed from. Blog is the Site
// postindex renders with; its templates are the built-in ones with an
// optional theme layered on top.
type Site interface {
	// TemplateDir returns the templates, addressed by the same paths
	// Components list in Templates.
	TemplateDir(ctx context.Context) fs.FS
}

// TemplateCacher lets a Site keep parsed templates between renders, keyed by
// the page's Key. Every index page of a build shares one key, so the index
// templates are parsed once per build or server. Only the parse is cached;
// each page still executes with its own data.
type TemplateCacher interface {
	// GetCachedTemplate returns the templates stored under key, or nil.
	GetCachedTemplate(ctx context.Context, key string) *template.Template

	// SetCachedTemplate stores tmpl under key.
	SetCachedTemplate(ctx context.Context, key string, tmpl *template.Template)
}

// ServerErrorPager is implemented by Sites that have a page to show when
// Render fails. Blog returns ErrorPage.
type ServerErrorPager interface {
	ServerErrorPage(ctx context.Context) Renderable
}

var _ Site = &CachedSite{}
var _ TemplateCacher = &CachedSite{}

// CachedSite holds a template directory and an in-memory parse cache. Blog
// embeds one; build workers and server handlers share it concurrently. Use
// NewCachedSite, the zero value has no cache map.
type CachedSite struct {
	templateCache   map[string]*template.Template
	templateCacheMu sync.RWMutex

	templateDir fs.FS
}

// NewCachedSite returns a CachedSite reading templates from templates.
func NewCachedSite(templates fs.FS) *CachedSite {
	return &CachedSite{
		templateCache: map[string]*template.Template{},
		templateDir:   templates,
	}
}

func (s *CachedSite) GetCachedTemplate(_ context.Context, key string) *template.Template {
	s.templateCacheMu.RLock()
	defer s.templateCacheMu.RUnlock()
	return s.templateCache[key]
}

func (s *CachedSite) SetCachedTemplate(_ context.Context, key string, tmpl *template.Template) {
	s.templateCacheMu.Lock()
	defer s.templateCacheMu.Unlock()
	s.templateCache[key] = tmpl
}

func (s *CachedSite) TemplateDir(_ context.Context) fs.FS {
	return s.templateDir
}

// overlayFS serves each file from the first layer that has it. Directory
// listings are merged across layers, so globbing sees every file once.
type overlayFS []fs.FS

func (o overlayFS) Open(name string) (fs.File, error) {
	var firstErr error
	for _, layer := range o {
		f, err := layer.Open(name)
		if err == nil {
			return f, nil
		}
		if firstErr == nil || !errors.Is(err, fs.ErrNotExist) {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return nil, firstErr
}

func (o overlayFS) ReadDir(name string) ([]fs.DirEntry, error) {
	seen := map[string]struct{}{}
	var entries []fs.DirEntry
	var found bool
	for _, layer := range o {
		list, err := fs.ReadDir(layer, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		found = true
		for _, entry := range list {
			if _, ok := seen[entry.Name()]; ok {
				continue
			}
			seen[entry.Name()] = struct{}{}
			entries = append(entries, entry)
		}
	}
	if !found {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	slices.SortFunc(entries, func(a, b fs.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return entries, nil
}
