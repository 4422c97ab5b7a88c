package postindex

import (
	"context"
	"fmt"
	"html/template"
	"strings"
)

// ResourceRelationship controls the relationship between two resources. It's
// used to control the order in which stylesheets and scripts are rendered to
// the page.
type ResourceRelationship string

const (
	// ResourceRelationshipAfter indicates that the resource should be
	// rendered after the resource it's being compared to.
	ResourceRelationshipAfter ResourceRelationship = "after"

	// ResourceRelationshipBefore indicates that the resource should be
	// rendered before the resource it's being compared to.
	ResourceRelationshipBefore ResourceRelationship = "before"

	// ResourceRelationshipNeutral indicates that the resource has no
	// restrictions about where it's rendered in relation to the resource
	// it's being compared to.
	ResourceRelationshipNeutral ResourceRelationship = "neutral"
)

// CSSLink is a stylesheet loaded through a <link> element.
type CSSLink struct {
	// Href is the URL of the stylesheet. Two CSSLinks with the same Href
	// are the same resource and only the first is rendered.
	Href string

	// Media is the optional media query for the stylesheet.
	Media string

	// RelationCalculator, if set, is consulted for every other stylesheet
	// on the page and disables implicit ordering for this resource.
	RelationCalculator func(context.Context, CSSLink) ResourceRelationship

	// DisableImplicitOrdering stops this stylesheet from being ordered
	// after the previous stylesheet declared by the same Component.
	DisableImplicitOrdering bool
}

func (l CSSLink) resourceKey() string {
	return "css:" + l.Href
}

func (l CSSLink) relationTo(ctx context.Context, other CSSLink) ResourceRelationship {
	if l.RelationCalculator == nil {
		return ResourceRelationshipNeutral
	}
	return l.RelationCalculator(ctx, other)
}

func (l CSSLink) implicitlyOrdered() bool {
	return l.RelationCalculator == nil && !l.DisableImplicitOrdering
}

// JSLink is a script loaded through a <script> element with a src attribute.
type JSLink struct {
	// Src is the URL of the script. Two JSLinks with the same Src are the
	// same resource and only the first is rendered.
	Src string

	// Async and Defer set the matching attributes on the <script>
	// element.
	Async bool
	Defer bool

	// PlaceInFooter renders the script at the end of the <body> instead
	// of in the <head>.
	PlaceInFooter bool

	// RelationCalculator, if set, is consulted for every other script in
	// the same position and disables implicit ordering for this resource.
	RelationCalculator func(context.Context, JSLink) ResourceRelationship

	// DisableImplicitOrdering stops this script from being ordered after
	// the previous script declared by the same Component.
	DisableImplicitOrdering bool
}

func (l JSLink) resourceKey() string {
	return "js:" + l.Src
}

func (l JSLink) relationTo(ctx context.Context, other JSLink) ResourceRelationship {
	if l.RelationCalculator == nil {
		return ResourceRelationshipNeutral
	}
	return l.RelationCalculator(ctx, other)
}

func (l JSLink) implicitlyOrdered() bool {
	return l.RelationCalculator == nil && !l.DisableImplicitOrdering
}

// CSSLinker is an interface that Components can fulfill to include
// stylesheets that should be loaded through a <link> element. The rendered
// elements are made available to the template as .CSS.
type CSSLinker interface {
	// LinkCSS returns the stylesheets this Component needs, in the order
	// they should be loaded.
	LinkCSS(context.Context) []CSSLink
}

// JSLinker is an interface that Components can fulfill to include scripts
// that should be loaded through a <script> element. The rendered elements are
// made available to the template as .HeaderJS and .FooterJS.
type JSLinker interface {
	// LinkJS returns the scripts this Component needs, in the order they
	// should be loaded.
	LinkJS(context.Context) []JSLink
}

func getComponentCSS(ctx context.Context, component Component) (template.HTML, error) {
	var groups [][]CSSLink
	for _, comp := range getRecursiveComponents(ctx, component) {
		if linker, ok := comp.(CSSLinker); ok {
			groups = append(groups, linker.LinkCSS(ctx))
		}
	}
	ordered, err := orderResources(ctx, groups)
	if err != nil {
		return "", fmt.Errorf("error ordering stylesheets for %T: %w", component, err)
	}
	var out strings.Builder
	for _, link := range ordered {
		fmt.Fprintf(&out, `<link href="%s" rel="stylesheet" type="text/css"`, template.HTMLEscapeString(link.Href))
		if link.Media != "" {
			fmt.Fprintf(&out, ` media="%s"`, template.HTMLEscapeString(link.Media))
		}
		out.WriteString(">\n")
	}
	return template.HTML(out.String()), nil // #nosec G203
}

func getComponentJS(ctx context.Context, component Component) (header, footer template.HTML, err error) {
	var headGroups, footGroups [][]JSLink
	for _, comp := range getRecursiveComponents(ctx, component) {
		linker, ok := comp.(JSLinker)
		if !ok {
			continue
		}
		var head, foot []JSLink
		for _, link := range linker.LinkJS(ctx) {
			if link.PlaceInFooter {
				foot = append(foot, link)
			} else {
				head = append(head, link)
			}
		}
		headGroups = append(headGroups, head)
		footGroups = append(footGroups, foot)
	}
	headOrdered, err := orderResources(ctx, headGroups)
	if err != nil {
		return "", "", fmt.Errorf("error ordering header scripts for %T: %w", component, err)
	}
	footOrdered, err := orderResources(ctx, footGroups)
	if err != nil {
		return "", "", fmt.Errorf("error ordering footer scripts for %T: %w", component, err)
	}
	return renderScripts(headOrdered), renderScripts(footOrdered), nil
}

func renderScripts(scripts []JSLink) template.HTML {
	var out strings.Builder
	for _, script := range scripts {
		fmt.Fprintf(&out, `<script src="%s"`, template.HTMLEscapeString(script.Src))
		if script.Async {
			out.WriteString(" async")
		}
		if script.Defer {
			out.WriteString(" defer")
		}
		out.WriteString("></script>\n")
	}
	return template.HTML(out.String()) // #nosec G203
}
