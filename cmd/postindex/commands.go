package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"impractical.co/postindex"
	"impractical.co/postindex/internal/build"
	"impractical.co/postindex/internal/content"
	"impractical.co/postindex/internal/metrics"
	"impractical.co/postindex/internal/server"
)

type globalOptions struct {
	configFile string
	logLevel   string
	logFormat  string
}

// NewRootCommand returns the postindex command with its subcommands.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:   "postindex",
		Short: "Render the paginated post indexes of a blog",
		Long: `postindex renders the index pages of a blog: the main index of each
language, split into pages, and optionally one index per author.

Posts are read from Markdown or HTML files with YAML front matter, or
imported from an RSS, Atom or JSON feed.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(opts.logLevel, opts.logFormat)
			if err != nil {
				return err
			}
			cmd.SetContext(postindex.LoggingContext(cmd.Context(), logger))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file; POSTINDEX_* environment variables override it")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")

	rootCmd.AddCommand(newBuildCommand(opts))
	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newPlanCommand(opts))
	return rootCmd
}

func newLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	handlerOpts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, handlerOpts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(os.Stderr, handlerOpts)), nil
	}
	return nil, fmt.Errorf("invalid log format %q", format)
}

func newBuildCommand(opts *globalOptions) *cobra.Command {
	var outputDir, metricsFile string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Write every index page to the output folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			reg := prometheus.NewRegistry()
			builder, posts, err := setup(ctx, opts.configFile, reg)
			if err != nil {
				return err
			}
			if outputDir == "" {
				outputDir = builder.Blog.OutputDir
			}
			if err := builder.Build(ctx, posts, outputDir); err != nil {
				return err
			}
			if metricsFile != "" {
				if err := prometheus.WriteToTextfile(metricsFile, reg); err != nil {
					return fmt.Errorf("error writing metrics: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output folder (default from config)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write build metrics to this file in the Prometheus text format")
	return cmd
}

func newServeCommand(opts *globalOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Render index pages on request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			builder, posts, err := setup(ctx, opts.configFile, reg)
			if err != nil {
				return err
			}
			handler, err := server.New(ctx, builder, posts, reg)
			if err != nil {
				return err
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			logger := postindex.Logger(ctx)
			errCh := make(chan error, 1)
			go func() {
				logger.InfoContext(ctx, "serving index pages", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			logger.InfoContext(ctx, "shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("error shutting down: %w", err)
			}
			return <-errCh
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on")
	return cmd
}

func newPlanCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "List the index pages a build would write",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			builder, posts, err := setup(ctx, opts.configFile, nil)
			if err != nil {
				return err
			}
			pages, err := builder.Plan(ctx, posts)
			if err != nil {
				return err
			}
			for _, page := range pages {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d posts\n", page.Path, page.Kind, len(page.Page.Posts))
			}
			return nil
		},
	}
}

// setup loads the configuration and posts and returns a Builder for them.
// Metrics are registered with reg when it's not nil.
func setup(ctx context.Context, configFile string, reg prometheus.Registerer) (*build.Builder, []postindex.Post, error) {
	cfg, err := postindex.LoadConfig(configFile)
	if err != nil {
		return nil, nil, err
	}
	var theme fs.FS
	if cfg.Theme.Dir != "" {
		theme = os.DirFS(cfg.Theme.Dir)
	}
	blog := postindex.NewBlog(cfg, theme)

	var m *metrics.Render
	if reg != nil {
		m = metrics.NewRender(reg)
	}

	entries, err := loadPosts(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return build.New(blog, m), content.Posts(entries), nil
}

func loadPosts(ctx context.Context, cfg postindex.SiteConfig) ([]*content.Entry, error) {
	opts := content.Options{
		Lang:        cfg.Lang,
		DefaultLang: cfg.Lang,
		Author:      cfg.Author,
		Location:    cfg.Location(),
		ReadMore:    cfg.ReadMoreLabel,
	}
	var entries []*content.Entry
	if cfg.Feed != "" {
		f, err := os.Open(cfg.Feed)
		if err != nil {
			return nil, fmt.Errorf("error opening feed: %w", err)
		}
		defer f.Close() //nolint:errcheck
		fromFeed, err := content.LoadFeed(ctx, f, opts)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fromFeed...)
	}
	if _, err := os.Stat(cfg.PostsDir); err == nil {
		fromDir, err := content.LoadDir(ctx, os.DirFS(cfg.PostsDir), ".", opts)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fromDir...)
	} else if cfg.Feed == "" {
		return nil, fmt.Errorf("error reading posts folder: %w", err)
	}
	content.SortNewestFirst(entries)
	return entries, nil
}
