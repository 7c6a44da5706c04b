package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnPlanStart(ctx, "Account", 2)
	p.OnPlanComplete(ctx, "Account", 12, time.Second, nil)
	p.OnBuildStart(ctx, "Account", 12)
	p.OnBuildComplete(ctx, "Account", 10, 14, false, time.Second, nil)
	p.OnLayoutStart(ctx, "hierarchical", 10)
	p.OnLayoutComplete(ctx, "hierarchical", time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "describe")
	c.OnCacheMiss(ctx, "diagram")
	c.OnCacheSet(ctx, "describe", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "acme.my.salesforce.com", "/services/data/")
	h.OnResponse(ctx, "GET", "acme.my.salesforce.com", "/services/data/", 200, time.Second)
	h.OnError(ctx, "GET", "acme.my.salesforce.com", "/services/data/", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)
	SetPipelineHooks(nil)

	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}

	Reset()
}

func TestPrometheusHooks(t *testing.T) {
	ctx := context.Background()
	h := NewPrometheusHooks(prometheus.NewRegistry())

	h.OnPlanComplete(ctx, "Account", 7, 10*time.Millisecond, nil)
	h.OnPlanComplete(ctx, "Account", 0, time.Millisecond, errors.New("boom"))
	h.OnBuildComplete(ctx, "Account", 5, 6, true, time.Millisecond, nil)
	h.OnBuildComplete(ctx, "Account", 3, 2, false, time.Millisecond, nil)
	h.OnCacheHit(ctx, "describe")
	h.OnCacheHit(ctx, "describe")
	h.OnCacheMiss(ctx, "describe")
	h.OnCacheSet(ctx, "describe", 256)
	h.OnResponse(ctx, "GET", "example.com", "/", 200, time.Millisecond)
	h.OnError(ctx, "GET", "example.com", "/", errors.New("reset"))

	if got := testutil.ToFloat64(h.StageErrors.WithLabelValues("plan")); got != 1 {
		t.Errorf("plan errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(h.Truncated); got != 1 {
		t.Errorf("truncated = %v, want 1", got)
	}
	if got := testutil.ToFloat64(h.CacheEvents.WithLabelValues("describe", "hit")); got != 2 {
		t.Errorf("cache hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(h.CacheEvents.WithLabelValues("describe", "miss")); got != 1 {
		t.Errorf("cache misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(h.CacheBytes.WithLabelValues("describe")); got != 256 {
		t.Errorf("cache bytes = %v, want 256", got)
	}
	if got := testutil.ToFloat64(h.HTTPRequests.WithLabelValues("GET", "example.com", "200")); got != 1 {
		t.Errorf("http requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(h.HTTPErrors.WithLabelValues("GET", "example.com")); got != 1 {
		t.Errorf("http errors = %v, want 1", got)
	}
}

type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
