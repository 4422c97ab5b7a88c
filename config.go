package postindex

import (
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// ErrInvalidConfig is returned when a SiteConfig fails validation.
var ErrInvalidConfig = errors.New("invalid site configuration")

// Comment systems understood by the comments helper.
const (
	CommentSystemNone   = ""
	CommentSystemDisqus = "disqus"
	CommentSystemIsso   = "isso"
)

// SiteConfig holds everything about a blog that index pages need. It's read
// from YAML, with POSTINDEX_* environment variables taking precedence.
type SiteConfig struct {
	Title   string `yaml:"title" env:"POSTINDEX_TITLE" env-default:"My Blog"`
	BaseURL string `yaml:"base_url" env:"POSTINDEX_BASE_URL"`
	Footer  string `yaml:"footer"`

	// Author is credited for posts that don't name their own.
	Author string `yaml:"author" env:"POSTINDEX_AUTHOR"`

	// Lang is the default language. Pages in other languages live under
	// /{lang}/.
	Lang string `yaml:"default_lang" env:"POSTINDEX_DEFAULT_LANG" env-default:"en"`

	// Translations maps language codes to their display names. A site
	// with more than one entry renders translation links.
	Translations map[string]string `yaml:"translations"`

	// Messages overrides the built-in message catalogue, per language.
	Messages map[string]map[string]string `yaml:"messages"`

	IndexFile     string `yaml:"index_file" env:"POSTINDEX_INDEX_FILE" env-default:"index.html"`
	ShowIndexFile bool   `yaml:"show_index_file" env:"POSTINDEX_SHOW_INDEX_FILE"`
	PostsPerPage  int    `yaml:"index_display_post_count" env:"POSTINDEX_POSTS_PER_PAGE" env-default:"10"`
	IndexTeasers  bool   `yaml:"index_teasers" env:"POSTINDEX_INDEX_TEASERS"`
	ReadMoreLabel string `yaml:"read_more_label" env-default:"Read more…"`

	// FrontIndexHeader is an HTML fragment shown at the top of the first
	// page of the main index.
	FrontIndexHeader template.HTML `yaml:"front_index_header"`

	// PrevNextLinksReversed swaps the newer/older pager links and counts
	// page numbers down instead of up.
	PrevNextLinksReversed bool `yaml:"prev_next_links_reversed"`

	// DateFormat is a strftime layout.
	DateFormat string `yaml:"date_format" env:"POSTINDEX_DATE_FORMAT" env-default:"%Y-%m-%d %H:%M"`
	Timezone   string `yaml:"timezone" env:"POSTINDEX_TIMEZONE" env-default:"UTC"`

	// AuthorPages enables the per-author indexes, and with them the
	// author links in bylines.
	AuthorPages bool `yaml:"author_pages" env:"POSTINDEX_AUTHOR_PAGES"`

	Comments CommentConfig `yaml:"comments"`
	Math     MathConfig    `yaml:"math"`
	Theme    ThemeConfig   `yaml:"theme"`

	PostsDir    string `yaml:"posts_folder" env:"POSTINDEX_POSTS_FOLDER" env-default:"posts"`
	Feed        string `yaml:"feed" env:"POSTINDEX_FEED"`
	OutputDir   string `yaml:"output_folder" env:"POSTINDEX_OUTPUT_FOLDER" env-default:"output"`
	Concurrency int    `yaml:"concurrency" env:"POSTINDEX_CONCURRENCY" env-default:"4"`
}

// CommentConfig selects the comment system.
type CommentConfig struct {
	System string `yaml:"system" env:"POSTINDEX_COMMENT_SYSTEM"`

	// SystemID is the Disqus shortname, or the base URL of the Isso
	// server.
	SystemID string `yaml:"system_id" env:"POSTINDEX_COMMENT_SYSTEM_ID"`
}

// MathConfig selects how math in posts is typeset.
type MathConfig struct {
	UseKatex bool `yaml:"use_katex" env:"POSTINDEX_USE_KATEX"`

	// KatexAutoRender is the options object passed to KaTeX's
	// renderMathInElement.
	KatexAutoRender template.JS `yaml:"katex_auto_render"`

	// MathJaxConfig is assigned to window.MathJax before MathJax loads.
	MathJaxConfig template.JS `yaml:"mathjax_config"`
}

// ThemeConfig describes the theme the templates come from.
type ThemeConfig struct {
	// Dir is a directory of templates layered over the built-in ones.
	Dir string `yaml:"dir" env:"POSTINDEX_THEME_DIR"`

	// Overrides are template paths within Dir parsed after the index
	// templates, so they can redefine extra_head, content_header or
	// content.
	Overrides []string `yaml:"overrides"`

	Stylesheets []string `yaml:"stylesheets"`

	// PrintStylesheets load after Stylesheets with media="print".
	PrintStylesheets []string `yaml:"print_stylesheets"`

	// Scripts load in order at the end of the body.
	Scripts []string `yaml:"scripts"`

	// HeadScripts load in the document head.
	HeadScripts []ThemeScript `yaml:"head_scripts"`
}

// ThemeScript is a script loaded in the document head.
type ThemeScript struct {
	Src   string `yaml:"src"`
	Async bool   `yaml:"async"`
	Defer bool   `yaml:"defer"`
}

// LoadConfig reads the configuration at path and applies environment
// overrides. An empty path reads the environment alone.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	var err error
	if path == "" {
		err = cleanenv.ReadEnv(&cfg)
	} else {
		err = cleanenv.ReadConfig(path, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("error reading config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the invariants the renderer relies on.
func (c SiteConfig) Validate() error {
	var problems []string
	if c.Lang == "" {
		problems = append(problems, "default_lang is empty")
	}
	if c.PostsPerPage < 1 {
		problems = append(problems, "index_display_post_count must be positive")
	}
	if c.IndexFile == "" || strings.Contains(c.IndexFile, "/") {
		problems = append(problems, fmt.Sprintf("index_file %q must be a bare file name", c.IndexFile))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("unknown timezone %q", c.Timezone))
	}
	switch c.Comments.System {
	case CommentSystemNone:
	case CommentSystemDisqus, CommentSystemIsso:
		if c.Comments.SystemID == "" {
			problems = append(problems, fmt.Sprintf("comment system %q needs system_id", c.Comments.System))
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown comment system %q", c.Comments.System))
	}
	if len(c.Translations) > 0 {
		if _, ok := c.Translations[c.Lang]; !ok {
			problems = append(problems, fmt.Sprintf("translations must include default_lang %q", c.Lang))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Location returns the time zone dates are displayed in.
func (c SiteConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Languages returns every language the site is published in, the default
// language first and the rest sorted by code.
func (c SiteConfig) Languages() []string {
	langs := []string{c.Lang}
	for _, code := range sortedKeys(c.Translations) {
		if code != c.Lang {
			langs = append(langs, code)
		}
	}
	return langs
}
