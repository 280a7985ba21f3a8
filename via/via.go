// Package via serves live, server-rendered pages.
//
// Views are rendered in Go. Browser events reach the server as actions
// carrying the current signal values, and view updates go back to the
// browser as datastar patches over a per-page SSE stream.
package via

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-via/contactform/h"
	"github.com/starfederation/datastar-go/datastar"
)

const (
	defaultDatastarURL = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

	// ctxSignal carries the page context id on every browser request.
	ctxSignal = "via-ctx"
)

// V is the root application.
// It manages page routing, page contexts and SSE connections for live updates.
type V struct {
	cfg                  Options
	mux                  *http.ServeMux
	contextRegistry      map[string]*Context
	contextRegistryMutex sync.RWMutex
	documentHeadIncludes []h.H
	documentFootIncludes []h.H
	now                  func() time.Time
}

func (v *V) logErr(c *Context, format string, a ...any) {
	cRef := ""
	if c != nil && c.id != "" {
		cRef = fmt.Sprintf("via-ctx=%q ", c.id)
	}
	log.Printf("[error] %smsg=%q", cRef, fmt.Sprintf(format, a...))
}

func (v *V) logWarn(c *Context, format string, a ...any) {
	cRef := ""
	if c != nil && c.id != "" {
		cRef = fmt.Sprintf("via-ctx=%q ", c.id)
	}
	if v.cfg.LogLvl >= LogLevelWarn {
		log.Printf("[warn] %smsg=%q", cRef, fmt.Sprintf(format, a...))
	}
}

func (v *V) logInfo(c *Context, format string, a ...any) {
	cRef := ""
	if c != nil && c.id != "" {
		cRef = fmt.Sprintf("via-ctx=%q ", c.id)
	}
	if v.cfg.LogLvl >= LogLevelInfo {
		log.Printf("[info] %smsg=%q", cRef, fmt.Sprintf(format, a...))
	}
}

func (v *V) logDebug(c *Context, format string, a ...any) {
	cRef := ""
	if c != nil && c.id != "" {
		cRef = fmt.Sprintf("via-ctx=%q ", c.id)
	}
	if v.cfg.LogLvl == LogLevelDebug {
		log.Printf("[debug] %smsg=%q", cRef, fmt.Sprintf(format, a...))
	}
}

// Config overrides the default configuration with the given configuration options.
func (v *V) Config(cfg Options) {
	if cfg.LogLvl != undefined {
		v.cfg.LogLvl = cfg.LogLvl
	}
	if cfg.DocumentTitle != "" {
		v.cfg.DocumentTitle = cfg.DocumentTitle
	}
	if cfg.ServerAddress != "" {
		v.cfg.ServerAddress = cfg.ServerAddress
	}
	if cfg.DatastarURL != "" {
		v.cfg.DatastarURL = cfg.DatastarURL
	}
	if cfg.ContextTTL != 0 {
		v.cfg.ContextTTL = cfg.ContextTTL
	}
}

// AppendToHead appends the given h.H nodes to the head of the base HTML document.
// Useful for including css stylesheets and JS scripts.
func (v *V) AppendToHead(elements ...h.H) {
	for _, el := range elements {
		if el != nil {
			v.documentHeadIncludes = append(v.documentHeadIncludes, el)
		}
	}
}

// AppendToFoot appends the given h.H nodes to the end of the base HTML document body.
func (v *V) AppendToFoot(elements ...h.H) {
	for _, el := range elements {
		if el != nil {
			v.documentFootIncludes = append(v.documentFootIncludes, el)
		}
	}
}

// Page registers a route and its associated page handler.
// The handler runs once per page load and receives a fresh *Context to
// define UI, signals, and actions.
//
// Example:
//
//	v.Page("/", func(c *via.Context) {
//		c.View(func() h.H {
//			return h.H1(h.Text("Hello, Via!"))
//		})
//	})
func (v *V) Page(route string, initContextFn func(c *Context)) {
	v.mux.HandleFunc("GET "+route, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "favicon") {
			http.NotFound(w, r)
			return
		}
		c := newContext(genRandID(), v)
		v.logDebug(c, "GET %s", route)
		initContextFn(c)
		if c.view == nil {
			v.logErr(c, "page %s has no view", route)
			http.Error(w, "page has no view", http.StatusInternalServerError)
			return
		}
		v.registerCtx(c)

		initialSignals, err := json.Marshal(c.initialSignals())
		if err != nil {
			v.logErr(c, "failed to encode signals: %v", err)
			http.Error(w, "failed to encode signals", http.StatusInternalServerError)
			return
		}
		headElements := append([]h.H{}, v.documentHeadIncludes...)
		headElements = append(headElements,
			h.Script(h.Type("module"), h.Src(v.cfg.DatastarURL)),
			h.Meta(h.DataSignals(string(initialSignals))),
			h.Meta(h.DataInit("@get('/_sse')")),
		)
		bodyElements := []h.H{c.view()}
		bodyElements = append(bodyElements, v.documentFootIncludes...)
		view := h.HTML5(h.HTML5Props{
			Title:    v.cfg.DocumentTitle,
			Language: "en",
			Head:     headElements,
			Body:     bodyElements,
		})
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := view.Render(w); err != nil {
			v.logErr(c, "failed to render page: %v", err)
		}
	})
}

func (v *V) registerCtx(c *Context) {
	v.contextRegistryMutex.Lock()
	defer v.contextRegistryMutex.Unlock()
	v.sweepStaleContexts()
	v.contextRegistry[c.id] = c
	v.logDebug(c, "new context added to registry")
}

// sweepStaleContexts drops contexts whose page never opened its SSE stream
// within ContextTTL. The caller holds contextRegistryMutex.
func (v *V) sweepStaleContexts() {
	if v.cfg.ContextTTL <= 0 {
		return
	}
	cutoff := v.now().Add(-v.cfg.ContextTTL)
	for id, c := range v.contextRegistry {
		if !c.streaming.Load() && c.createdAt.Before(cutoff) {
			delete(v.contextRegistry, id)
			v.logDebug(c, "stale context removed from registry")
		}
	}
}

// openStream looks up the context for a new SSE stream and exempts it
// from the stale sweep.
func (v *V) openStream(id string) (*Context, error) {
	v.contextRegistryMutex.Lock()
	defer v.contextRegistryMutex.Unlock()
	c, ok := v.contextRegistry[id]
	if !ok {
		return nil, fmt.Errorf("ctx '%s' not found", id)
	}
	c.streaming.Store(true)
	return c, nil
}

func (v *V) unregisterCtx(c *Context) {
	v.contextRegistryMutex.Lock()
	defer v.contextRegistryMutex.Unlock()
	delete(v.contextRegistry, c.id)
	v.logDebug(c, "context removed from registry")
}

func (v *V) getCtx(id string) (*Context, error) {
	v.contextRegistryMutex.RLock()
	defer v.contextRegistryMutex.RUnlock()
	if c, ok := v.contextRegistry[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("ctx '%s' not found", id)
}

// HandleFunc registers the HTTP handler function for a given pattern. The handler function panics if
// in conflict with another registered handler with the same pattern.
func (v *V) HandleFunc(pattern string, f http.HandlerFunc) {
	v.mux.HandleFunc(pattern, f)
}

// HTTPServeMux returns the mux serving pages, actions and the SSE stream.
func (v *V) HTTPServeMux() *http.ServeMux {
	return v.mux
}

// Start starts the Via HTTP server on the configured address.
func (v *V) Start() {
	v.logInfo(nil, "via started on address: %s", v.cfg.ServerAddress)
	srv := &http.Server{
		Addr:              v.cfg.ServerAddress,
		Handler:           v.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Fatalf("[fatal] %v", srv.ListenAndServe())
}

// New creates a new Via application with default configuration.
func New() *V {
	v := &V{
		mux:             http.NewServeMux(),
		contextRegistry: make(map[string]*Context),
		cfg: Options{
			ServerAddress: ":3000",
			LogLvl:        LogLevelInfo,
			DocumentTitle: "⚡ Via",
			DatastarURL:   defaultDatastarURL,
			ContextTTL:    30 * time.Minute,
		},
		now: time.Now,
	}

	v.mux.HandleFunc("GET /_sse", func(w http.ResponseWriter, r *http.Request) {
		var sigs map[string]any
		if err := datastar.ReadSignals(r, &sigs); err != nil {
			v.logErr(nil, "failed to read signals: %v", err)
			http.Error(w, "invalid signals", http.StatusBadRequest)
			return
		}
		cID, _ := sigs[ctxSignal].(string)
		c, err := v.openStream(cID)
		if err != nil {
			v.logErr(nil, "failed to open stream: %v", err)
			http.Error(w, "unknown context", http.StatusNotFound)
			return
		}
		sse := datastar.NewSSE(w, r)
		v.logDebug(c, "SSE connection established")
		defer func() {
			v.unregisterCtx(c)
			v.logDebug(c, "SSE connection closed")
		}()
		c.SyncSignals()
		for {
			select {
			case <-sse.Context().Done():
				return
			case p := <-c.patchChan:
				if err := writePatch(sse, p); err != nil {
					v.logWarn(c, "failed to write patch: %v", err)
					return
				}
			}
		}
	})

	v.mux.HandleFunc("GET /_action/{id}", func(w http.ResponseWriter, r *http.Request) {
		actionID := r.PathValue("id")
		var sigs map[string]any
		if err := datastar.ReadSignals(r, &sigs); err != nil {
			v.logErr(nil, "action '%s' failed: %v", actionID, err)
			http.Error(w, "invalid signals", http.StatusBadRequest)
			return
		}
		cID, _ := sigs[ctxSignal].(string)
		c, err := v.getCtx(cID)
		if err != nil {
			v.logErr(nil, "action '%s' failed: %v", actionID, err)
			http.Error(w, "unknown context", http.StatusNotFound)
			return
		}
		actionFn, err := c.getActionFn(actionID)
		if err != nil {
			v.logDebug(c, "action '%s' failed: %v", actionID, err)
			http.Error(w, "unknown action", http.StatusNotFound)
			return
		}
		v.logDebug(c, "signals=%v", sigs)
		c.runAction(actionID, sigs, actionFn)
	})
	return v
}

func writePatch(sse *datastar.ServerSentEventGenerator, p patch) error {
	switch p.typ {
	case patchTypeElements:
		return sse.PatchElements(p.content)
	case patchTypeSignals:
		return sse.PatchSignals([]byte(p.content))
	}
	return fmt.Errorf("unknown patch type %d", p.typ)
}

func genRandID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func renderToString(el h.H) (string, error) {
	var b bytes.Buffer
	if err := el.Render(&b); err != nil {
		return "", err
	}
	return b.String(), nil
}
