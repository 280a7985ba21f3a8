package via

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-via/contactform/h"
)

// Context is the living bridge between Go and one browser page.
//
// It holds the page's signals and actions and defines its UI through View.
// Actions of one Context run one at a time.
type Context struct {
	id             string
	app            *V
	view           func() h.H
	actionRegistry map[string]func()
	signals        map[string]*signal
	signalsMu      sync.RWMutex
	actionMu       sync.Mutex
	patchChan      chan patch
	createdAt      time.Time
	streaming      atomic.Bool
}

// ID returns the context id carried by the page's requests.
func (c *Context) ID() string {
	return c.id
}

// View defines the UI rendered by this context.
// The function should return an h.H element (from h).
//
// Changes to signals or state can be pushed live with Sync().
func (c *Context) View(f func() h.H) {
	if f == nil {
		c.app.logErr(c, "failed to bind view to context: nil func")
		return
	}
	c.view = func() h.H { return h.Div(h.ID(c.id), f()) }
}

// Action registers an event handler and returns a trigger to that event that
// that can be added to the view fn as any other h element.
//
// Example:
//
//	n := 0
//	increment := c.Action(func(){
//		 n++
//		 c.Sync()
//	})
//
//	c.View(func() h.H {
//		 return h.Div(
//		 	 	h.P(h.Textf("Value of n: %d", n)),
//		 	 	h.Button(h.Text("Increment n"), increment.OnClick()),
//		 )
//	})
func (c *Context) Action(f func()) *actionTrigger {
	id := genRandID()
	if f == nil {
		c.app.logErr(c, "failed to bind action '%s' to context: nil func", id)
		return nil
	}
	c.actionRegistry[id] = f
	return &actionTrigger{id: id}
}

func (c *Context) getActionFn(id string) (func(), error) {
	if f, ok := c.actionRegistry[id]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("action '%s' not found", id)
}

func (c *Context) runAction(id string, sigs map[string]any, f func()) {
	c.actionMu.Lock()
	defer c.actionMu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			c.app.logErr(c, "action '%s' failed: %v", id, r)
		}
	}()
	c.injectSignals(sigs)
	f()
}

// Signal creates a reactive signal and initializes it with the given value.
// Use Bind() to link the value of input elements to the signal and Text() to
// display the signal value.
//
// Signals are 'alive' only in the browser, but Via always injects their values
// into the Context before each action call. Server side updates made with
// SetValue are sent to the browser by Sync() or SyncSignals().
func (c *Context) Signal(v any) *signal {
	sig := &signal{id: "s" + genRandID(), v: v}
	if v == nil {
		c.app.logErr(c, "failed to bind signal '%s': nil signal value", sig.id)
		sig.v = ""
	}
	c.signalsMu.Lock()
	c.signals[sig.id] = sig
	c.signalsMu.Unlock()
	return sig
}

func (c *Context) initialSignals() map[string]any {
	c.signalsMu.RLock()
	defer c.signalsMu.RUnlock()
	out := map[string]any{ctxSignal: c.id}
	for id, sig := range c.signals {
		out[id] = sig.value()
	}
	return out
}

func (c *Context) injectSignals(sigs map[string]any) {
	c.signalsMu.RLock()
	defer c.signalsMu.RUnlock()
	for sigID, val := range sigs {
		if sig, ok := c.signals[sigID]; ok {
			sig.inject(val)
		}
	}
}

func (c *Context) takeChangedSignals() map[string]any {
	c.signalsMu.RLock()
	defer c.signalsMu.RUnlock()
	changed := make(map[string]any)
	for id, sig := range c.signals {
		if v, ok := sig.takeChange(); ok {
			changed[id] = v
		}
	}
	return changed
}

func (c *Context) send(p patch) {
	select {
	case c.patchChan <- p:
	default:
		c.app.logWarn(c, "patch dropped: patch buffer full")
	}
}

// Sync pushes the current view and signal changes to the browser over the
// live SSE event stream.
func (c *Context) Sync() {
	if c.view == nil {
		c.app.logErr(c, "sync view failed: viewfn is nil")
		return
	}
	elems, err := renderToString(c.view())
	if err != nil {
		c.app.logErr(c, "sync view failed: %v", err)
		return
	}
	c.send(patch{patchTypeElements, elems})
	c.SyncSignals()
}

// SyncSignals pushes the signals changed by SetValue to the browser.
func (c *Context) SyncSignals() {
	updated := c.takeChangedSignals()
	if len(updated) == 0 {
		return
	}
	out, err := json.Marshal(updated)
	if err != nil {
		c.app.logErr(c, "sync signals failed: %v", err)
		return
	}
	c.send(patch{patchTypeSignals, string(out)})
}

func newContext(id string, app *V) *Context {
	return &Context{
		id:             id,
		app:            app,
		actionRegistry: make(map[string]func()),
		signals:        make(map[string]*signal),
		patchChan:      make(chan patch, 100),
		createdAt:      app.now(),
	}
}
