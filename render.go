package postindex

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrNoTemplatePath is returned when a template path is needed, but
	// none are supplied.
	ErrNoTemplatePath = errors.New("need at least one template path")

	// ErrTemplatePatternMatchesNoFiles is returned when a template path is
	// a pattern, but that pattern doesn't match any files.
	ErrTemplatePatternMatchesNoFiles = errors.New("pattern matches no files")
)

var tracer = otel.Tracer("impractical.co/postindex")

// Component is an interface for a UI component that can be rendered to HTML.
type Component interface {
	// Templates returns a list of paths or glob patterns, relative to
	// the Site's TemplateDir, of html/template files that need to be
	// parsed before the Component can be rendered.
	Templates(context.Context) []string
}

// ComponentUser is an interface that a Component can optionally implement to
// list the Components that it relies upon. The templates of those Components
// are parsed before the user's own templates, so the user can override any
// region they declare with block. Their FuncMaps, stylesheets and scripts are
// included automatically.
type ComponentUser interface {
	// UseComponents returns the Components that this Component relies on.
	UseComponents(context.Context) []Component
}

// FuncMapExtender is an interface that Components and Sites can fulfill to
// add to the map of functions available to templates when parsing.
type FuncMapExtender interface {
	// FuncMap returns an html/template.FuncMap containing all the
	// functions being added.
	FuncMap(context.Context) template.FuncMap
}

// Renderable is an interface for a page that can be passed to Execute or
// Render. It defines a single logical page, composed of one or more
// Components, and should contain all the information needed to render them.
type Renderable interface {
	Component

	// Key is a unique key to use when caching this page's parsed
	// templates. A good key is consistent, but differs whenever the set
	// of parsed templates differs.
	Key(context.Context) string

	// ExecutedTemplate is the template that needs to actually be executed
	// when rendering the page. This is usually the layout whose blocks
	// the page fills in, not a template of the page itself.
	ExecutedTemplate(context.Context) string
}

// RenderData is the data passed to the executed template.
type RenderData[SiteType Site, PageType Renderable] struct {
	// Site holds the configuration shared by every page.
	Site SiteType

	// Page is the page being rendered.
	Page PageType

	// CSS holds the <link> elements for every stylesheet the page's
	// Components declared, in dependency order.
	CSS template.HTML

	// HeaderJS holds the <script> elements for scripts that belong in the
	// document head.
	HeaderJS template.HTML

	// FooterJS holds the <script> elements for scripts that belong at the
	// end of the document body.
	FooterJS template.HTML
}

// Render renders the passed page to out. If it can't, a server error page is
// written instead: the Site's ServerErrorPage when the Site implements
// ServerErrorPager, or a short plain text message otherwise. Errors are
// logged to the logger carried by ctx.
//
// If out implements io.Closer, it is closed when Render returns.
func Render[SiteType Site, PageType Renderable](ctx context.Context, out io.Writer, site SiteType, page PageType) {
	defer func() {
		if closer, ok := out.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				Logger(ctx).ErrorContext(ctx, "error closing output", "error", err)
			}
		}
	}()

	err := Execute(ctx, out, site, page)
	if err == nil {
		return
	}
	Logger(ctx).ErrorContext(ctx, "error rendering page", "error", err, "page", fmt.Sprintf("%T", page))

	if pager, ok := Site(site).(ServerErrorPager); ok {
		err = Execute(ctx, out, site, pager.ServerErrorPage(ctx))
		if err != nil {
			Logger(ctx).ErrorContext(ctx, "error rendering server error page", "error", err)
		}
		return
	}

	if _, err = io.WriteString(out, "Server error."); err != nil {
		Logger(ctx).ErrorContext(ctx, "error writing server error message", "error", err)
	}
}

// Execute renders the passed page to out, returning any error encountered
// while parsing or executing its templates. Output may have been partially
// written when an error is returned.
func Execute[SiteType Site, PageType Renderable](ctx context.Context, out io.Writer, site SiteType, page PageType) (err error) {
	key := page.Key(ctx)
	executed := page.ExecutedTemplate(ctx)
	ctx, span := tracer.Start(ctx, "postindex.Execute", trace.WithAttributes(
		attribute.String("postindex.page_key", key),
		attribute.String("postindex.executed_template", executed),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tmpl, err := getTemplate(ctx, site, page)
	if err != nil {
		return err
	}
	css, err := getComponentCSS(ctx, page)
	if err != nil {
		return err
	}
	headerJS, footerJS, err := getComponentJS(ctx, page)
	if err != nil {
		return err
	}

	data := RenderData[SiteType, PageType]{
		Site:     site,
		Page:     page,
		CSS:      css,
		HeaderJS: headerJS,
		FooterJS: footerJS,
	}
	if err := tmpl.ExecuteTemplate(out, executed, data); err != nil {
		return fmt.Errorf("error executing template %q for %T: %w", executed, page, err)
	}
	return nil
}

func getTemplate(ctx context.Context, site Site, page Renderable) (*template.Template, error) {
	key := page.Key(ctx)
	cache, cacheable := site.(TemplateCacher)
	if cacheable {
		if cached := cache.GetCachedTemplate(ctx, key); cached != nil {
			return cached, nil
		}
	}
	tmplPaths := getComponentTemplatePaths(ctx, page)
	if len(tmplPaths) < 1 {
		return nil, fmt.Errorf("error rendering %T: %w", page, ErrNoTemplatePath)
	}
	funcMap := getComponentFuncMap(ctx, site, page)
	parsed, err := parseTemplates(site.TemplateDir(ctx), funcMap, tmplPaths...)
	if err != nil {
		return nil, fmt.Errorf("error parsing templates %v for page %T: %w", tmplPaths, page, err)
	}
	if cacheable {
		cache.SetCachedTemplate(ctx, key, parsed)
	}
	Logger(ctx).DebugContext(ctx, "parsed templates", "key", key, "templates", tmplPaths)
	return parsed, nil
}

// getRecursiveComponents returns component followed by every Component it
// uses, depth first.
func getRecursiveComponents(ctx context.Context, component Component) []Component {
	results := []Component{component}
	if uses, ok := component.(ComponentUser); ok {
		for _, child := range uses.UseComponents(ctx) {
			results = append(results, getRecursiveComponents(ctx, child)...)
		}
	}
	return results
}

// getComponentTemplatePaths returns the template paths of component and every
// Component it uses, dependencies first. A path is only listed the first time
// it's seen.
func getComponentTemplatePaths(ctx context.Context, component Component) []string {
	var results []string
	seen := map[string]struct{}{}
	var visit func(Component)
	visit = func(comp Component) {
		if uses, ok := comp.(ComponentUser); ok {
			for _, child := range uses.UseComponents(ctx) {
				visit(child)
			}
		}
		for _, path := range comp.Templates(ctx) {
			if _, ok := seen[path]; ok {
				continue
			}
			seen[path] = struct{}{}
			results = append(results, path)
		}
	}
	visit(component)
	return results
}

func getComponentFuncMap(ctx context.Context, site Site, component Component) template.FuncMap {
	results := template.FuncMap{}
	if fm, ok := site.(FuncMapExtender); ok {
		results = mergeFuncMaps(results, fm.FuncMap(ctx))
	}
	for _, comp := range getRecursiveComponents(ctx, component) {
		fm, ok := comp.(FuncMapExtender)
		if !ok {
			continue
		}
		results = mergeFuncMaps(results, fm.FuncMap(ctx))
	}
	return results
}

func parseTemplates(fsys fs.FS, funcs template.FuncMap, patterns ...string) (*template.Template, error) {
	var files []string
	for _, pattern := range patterns {
		list, err := fs.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("error listing files for %q: %w", pattern, err)
		}
		if len(list) < 1 {
			return nil, fmt.Errorf("error parsing %q: %w", pattern, ErrTemplatePatternMatchesNoFiles)
		}
		files = append(files, list...)
	}
	if len(files) < 1 {
		return nil, ErrNoTemplatePath
	}
	tmpl := template.New("").Funcs(funcs)
	for _, file := range files {
		contents, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("error reading %q: %w", file, err)
		}
		if _, err := tmpl.New(file).Parse(string(contents)); err != nil {
			return nil, fmt.Errorf("error parsing %q: %w", file, err)
		}
	}
	return tmpl, nil
}

// mergeFuncMaps flattens two FuncMaps into one, with the values in `page`
// overriding the values in `in` if they have the same keys.
func mergeFuncMaps(in template.FuncMap, page template.FuncMap) template.FuncMap {
	res := template.FuncMap{}
	for k, v := range in {
		res[k] = v
	}
	for k, v := range page {
		res[k] = v
	}
	return res
}
