package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRender(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewRender(reg)

	start := time.Now()
	m.ObserveRender("main", start, nil)
	m.ObserveRender("main", start, nil)
	m.ObserveRender("author", start, errors.New("boom"))
	m.SetPostsIndexed("en", 12)

	if got := testutil.ToFloat64(m.PagesRendered.WithLabelValues("main")); got != 2 {
		t.Errorf("expected 2 rendered main pages, got %v", got)
	}
	if got := testutil.ToFloat64(m.PagesRendered.WithLabelValues("author")); got != 0 {
		t.Errorf("expected no rendered author pages, got %v", got)
	}
	if got := testutil.ToFloat64(m.RenderErrors.WithLabelValues("author")); got != 1 {
		t.Errorf("expected 1 author render error, got %v", got)
	}
	if got := testutil.ToFloat64(m.PostsIndexed.WithLabelValues("en")); got != 12 {
		t.Errorf("expected 12 posts indexed, got %v", got)
	}
	if got := testutil.CollectAndCount(m.RenderDuration); got != 2 {
		t.Errorf("expected durations for 2 kinds, got %d", got)
	}
}

func TestNilRenderIsNoop(t *testing.T) {
	t.Parallel()

	var m *Render
	m.ObserveRender("main", time.Now(), nil)
	m.SetPostsIndexed("en", 1)
}
