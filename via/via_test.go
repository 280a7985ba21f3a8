package via

import (
	"context"
	"encoding/json"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/go-via/contactform/h"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func actionRequest(t *testing.T, actionID string, sigs map[string]any) *http.Request {
	t.Helper()
	b, err := json.Marshal(sigs)
	require.NoError(t, err)
	return httptest.NewRequest("GET", "/_action/"+actionID+"?datastar="+url.QueryEscape(string(b)), nil)
}

var signalsMetaRe = regexp.MustCompile(`<meta data-signals="([^"]*)">`)

func pageSignals(t *testing.T, body string) map[string]any {
	t.Helper()
	m := signalsMetaRe.FindStringSubmatch(body)
	require.NotNil(t, m, "page has no signals meta")
	var sigs map[string]any
	require.NoError(t, json.Unmarshal([]byte(html.UnescapeString(m[1])), &sigs))
	return sigs
}

func TestPageRoute(t *testing.T) {
	v := New()
	v.Page("/", func(c *Context) {
		c.View(func() h.H {
			return h.Div(h.Text("Hello Via!"))
		})
	})

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	v.HTTPServeMux().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "Hello Via!")
	assert.Contains(t, body, "<!doctype html>")
	assert.Contains(t, body, defaultDatastarURL)
	assert.Contains(t, body, `data-init="@get(&#39;/_sse&#39;)"`)
}

func TestPageRegistersContext(t *testing.T) {
	v := New()
	var ctx *Context
	v.Page("/", func(c *Context) {
		ctx = c
		c.View(func() h.H { return h.Div() })
	})

	w := httptest.NewRecorder()
	v.HTTPServeMux().ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	sigs := pageSignals(t, w.Body.String())
	assert.Equal(t, ctx.ID(), sigs[ctxSignal])
	got, err := v.getCtx(ctx.ID())
	require.NoError(t, err)
	assert.Same(t, ctx, got)
}

func TestPageWithoutView(t *testing.T) {
	v := New()
	v.Config(Options{LogLvl: LogLevelError})
	v.Page("/", func(c *Context) {})

	w := httptest.NewRecorder()
	v.HTTPServeMux().ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestFavicon(t *testing.T) {
	v := New()
	v.Page("/", func(c *Context) {
		c.View(func() h.H { return h.Div() })
	})
	w := httptest.NewRecorder()
	v.HTTPServeMux().ServeHTTP(w, httptest.NewRequest("GET", "/favicon.ico", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHeadAndFootIncludes(t *testing.T) {
	v := New()
	v.AppendToHead(h.Meta(h.Name("x-head")), nil)
	v.AppendToFoot(h.Script(h.Src("/foot.js")), nil)
	v.Page("/", func(c *Context) {
		c.View(func() h.H { return h.Div() })
	})

	w := httptest.NewRecorder()
	v.HTTPServeMux().ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.Contains(t, w.Body.String(), `<meta name="x-head">`)
	assert.Contains(t, w.Body.String(), `<script src="/foot.js"></script>`)
}

func TestActionInjectsSignals(t *testing.T) {
	v := New()
	var ctx *Context
	var trigger *actionTrigger
	var got string
	v.Page("/", func(c *Context) {
		ctx = c
		name := c.Signal("initial")
		trigger = c.Action(func() { got = name.String() })
		c.View(func() h.H {
			return h.Input(name.Bind(), trigger.OnBlur())
		})
	})

	w := httptest.NewRecorder()
	v.HTTPServeMux().ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	sigs := pageSignals(t, w.Body.String())

	var nameID string
	for k, val := range sigs {
		if k != ctxSignal {
			nameID = k
			assert.Equal(t, "initial", val)
		}
	}
	require.NotEmpty(t, nameID)

	w = httptest.NewRecorder()
	v.HTTPServeMux().ServeHTTP(w, actionRequest(t, trigger.ID(), map[string]any{
		ctxSignal: ctx.ID(),
		nameID:    "from browser",
		"unknown": "ignored",
	}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "from browser", got)
}

func TestActionUnknownContext(t *testing.T) {
	v := New()
	v.Config(Options{LogLvl: LogLevelError})
	w := httptest.NewRecorder()
	v.HTTPServeMux().ServeHTTP(w, actionRequest(t, "abc", map[string]any{ctxSignal: "nope"}))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestActionUnknownAction(t *testing.T) {
	v := New()
	var ctx *Context
	v.Page("/", func(c *Context) {
		ctx = c
		c.View(func() h.H { return h.Div() })
	})
	v.HTTPServeMux().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	w := httptest.NewRecorder()
	v.HTTPServeMux().ServeHTTP(w, actionRequest(t, "missing", map[string]any{ctxSignal: ctx.ID()}))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestActionPanicIsRecovered(t *testing.T) {
	v := New()
	v.Config(Options{LogLvl: LogLevelError})
	var ctx *Context
	var boom, ok *actionTrigger
	calls := 0
	v.Page("/", func(c *Context) {
		ctx = c
		boom = c.Action(func() { panic("boom") })
		ok = c.Action(func() { calls++ })
		c.View(func() h.H { return h.Div() })
	})
	v.HTTPServeMux().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	assert.NotPanics(t, func() {
		v.HTTPServeMux().ServeHTTP(httptest.NewRecorder(), actionRequest(t, boom.ID(), map[string]any{ctxSignal: ctx.ID()}))
	})
	// the context is still usable after a panicking action
	v.HTTPServeMux().ServeHTTP(httptest.NewRecorder(), actionRequest(t, ok.ID(), map[string]any{ctxSignal: ctx.ID()}))
	assert.Equal(t, 1, calls)
}

func TestSSEUnknownContext(t *testing.T) {
	v := New()
	v.Config(Options{LogLvl: LogLevelError})
	w := httptest.NewRecorder()
	v.HTTPServeMux().ServeHTTP(w, httptest.NewRequest("GET", "/_sse?datastar="+url.QueryEscape(`{"via-ctx":"nope"}`), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfig(t *testing.T) {
	v := New()
	v.Config(Options{DocumentTitle: "Test"})
	assert.Equal(t, "Test", v.cfg.DocumentTitle)
	assert.Equal(t, ":3000", v.cfg.ServerAddress)
	assert.Equal(t, LogLevelInfo, v.cfg.LogLvl)

	v.Config(Options{ServerAddress: ":8080", LogLvl: LogLevelDebug, DatastarURL: "/ds.js"})
	assert.Equal(t, ":8080", v.cfg.ServerAddress)
	assert.Equal(t, LogLevelDebug, v.cfg.LogLvl)
	assert.Equal(t, "/ds.js", v.cfg.DatastarURL)
	assert.Equal(t, "Test", v.cfg.DocumentTitle)
	assert.Equal(t, 30*time.Minute, v.cfg.ContextTTL)

	v.Config(Options{ContextTTL: time.Minute})
	assert.Equal(t, time.Minute, v.cfg.ContextTTL)
}

func newEmptyPageApp(t *testing.T, opts Options) (*V, func() string) {
	t.Helper()
	v := New()
	opts.LogLvl = LogLevelError
	v.Config(opts)
	v.Page("/", func(c *Context) {
		c.View(func() h.H { return h.Div() })
	})
	load := func() string {
		w := httptest.NewRecorder()
		v.HTTPServeMux().ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
		id, _ := pageSignals(t, w.Body.String())[ctxSignal].(string)
		require.NotEmpty(t, id)
		return id
	}
	return v, load
}

func registrySize(v *V) int {
	v.contextRegistryMutex.RLock()
	defer v.contextRegistryMutex.RUnlock()
	return len(v.contextRegistry)
}

func TestSSECloseUnregistersContext(t *testing.T) {
	v, load := newEmptyPageApp(t, Options{})
	id := load()
	c, err := v.getCtx(id)
	require.NoError(t, err)

	b, err := json.Marshal(map[string]any{ctxSignal: id})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest("GET", "/_sse?datastar="+url.QueryEscape(string(b)), nil).WithContext(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		v.HTTPServeMux().ServeHTTP(httptest.NewRecorder(), req)
	}()

	require.Eventually(t, c.streaming.Load, time.Second, 5*time.Millisecond)
	_, err = v.getCtx(id)
	assert.NoError(t, err, "context must stay registered while streaming")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("SSE handler did not return after the request was cancelled")
	}
	_, err = v.getCtx(id)
	assert.Error(t, err)
}

func TestStaleContextsAreSwept(t *testing.T) {
	v, load := newEmptyPageApp(t, Options{ContextTTL: time.Minute})
	now := time.Now()
	v.now = func() time.Time { return now }

	for range 1000 {
		load()
	}
	streamed := load()
	_, err := v.openStream(streamed)
	require.NoError(t, err)
	assert.Equal(t, 1001, registrySize(v))

	// still inside the TTL
	now = now.Add(30 * time.Second)
	fresh := load()
	assert.Equal(t, 1002, registrySize(v))

	now = now.Add(45 * time.Second)
	latest := load()
	assert.Equal(t, 3, registrySize(v))
	for _, id := range []string{streamed, fresh, latest} {
		_, err := v.getCtx(id)
		assert.NoError(t, err, id)
	}
}

func TestStaleContextSweepDisabled(t *testing.T) {
	v, load := newEmptyPageApp(t, Options{ContextTTL: -1})
	now := time.Now()
	v.now = func() time.Time { return now }

	first := load()
	now = now.Add(24 * time.Hour)
	load()

	assert.Equal(t, 2, registrySize(v))
	_, err := v.getCtx(first)
	assert.NoError(t, err)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"error", LogLevelError},
		{"WARN", LogLevelWarn},
		{"warning", LogLevelWarn},
		{"", LogLevelInfo},
		{" info ", LogLevelInfo},
		{"debug", LogLevelDebug},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := ParseLogLevel("loud")
	assert.Error(t, err)
}
