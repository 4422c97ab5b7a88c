// Package postindex renders the paginated post index of a static blog using
// html/template.
//
// Rendering is organized around Components and Renderables. A Component is a
// piece of the HTML document with templates of its own: the base layout, the
// page navigation, the comment links, the math support. A Renderable is a
// Component that gets executed itself; IndexPage is the Renderable this
// package is built around.
//
// Components compose through named regions. A layout declares a region with
// {{ block "name" . }}default{{ end }}, and any Component that uses the layout
// may replace it with {{ define "name" }}...{{ end }}. Templates of the
// Components a Component uses are always parsed before its own templates, so
// the most specific definition wins. When an override wants the region's
// default as well, the default lives in its own template (base_extra_head,
// for example) that both the block and the override can call.
//
// A Site provides the fs.FS the templates are read from and is available at
// render time as .Site. Blog is the Site implementation for a configured blog;
// it caches parsed templates and contributes the link and messages template
// functions.
//
// To render a page, pass it to Execute, which returns any error, or to Render,
// which logs the error and writes the Site's server error page instead.
package postindex
