// Package vtest drives via pages in-process for tests.
//
// A Page keeps the browser-side state a real datastar client would hold:
// the current view HTML and the signal values. Actions are sent with those
// signals, and the patches arriving on the page's SSE stream are applied
// back onto the Page.
package vtest

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
)

const ctxSignal = "via-ctx"

// patchTimeout bounds how long an interaction waits for its SSE patch.
var patchTimeout = 2 * time.Second

var (
	defaultHandler   http.Handler
	defaultHandlerMu sync.RWMutex
)

// SetHandler sets the default handler for Visit.
func SetHandler(handler http.Handler) {
	defaultHandlerMu.Lock()
	defaultHandler = handler
	defaultHandlerMu.Unlock()
}

// Visit creates a new stateful Page by visiting the given path on the
// handler set with SetHandler.
func Visit(path string) *Page {
	defaultHandlerMu.RLock()
	handler := defaultHandler
	defaultHandlerMu.RUnlock()

	if handler == nil {
		panic("vtest: no handler set, call vtest.SetHandler first")
	}
	return VisitWith(handler, path)
}

// VisitWith creates a new stateful Page by visiting path on handler.
func VisitWith(handler http.Handler, path string) *Page {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	doc := w.Body.String()
	signals := extractSignals(doc)
	p := &Page{
		handler: handler,
		html:    doc,
		signals: signals,
	}
	p.sse = sseConnect(handler, signals[ctxSignal])
	return p
}

// Page represents a stateful page that maintains its context and current HTML.
type Page struct {
	handler http.Handler
	html    string
	sse     *SSE
	signals map[string]string
	applied int
}

// HTML returns the current view HTML.
func (p *Page) HTML() string {
	return p.html
}

// ContextID returns the page's via context id.
func (p *Page) ContextID() string {
	return p.signals[ctxSignal]
}

// Click triggers the click action of the button with the given text.
// A submit button without one submits its enclosing form.
func (p *Page) Click(text string) error {
	for _, b := range findElements(p.html, "button") {
		if collapse(b.text) != text {
			continue
		}
		if target := b.action("click"); target != "" {
			return p.trigger(target)
		}
		if typ := b.attrs["type"]; typ == "submit" || typ == "" {
			if form, ok := p.enclosingForm(b); ok {
				if target := form.action("submit"); target != "" {
					return p.trigger(target)
				}
			}
		}
		return fmt.Errorf("vtest: button %q has no click action", text)
	}
	return fmt.Errorf("vtest: button %q not found", text)
}

// Fill sets the signal bound to the input or textarea named name, as
// typing into it would.
func (p *Page) Fill(name, value string) error {
	el, ok := p.field(name)
	if !ok {
		return fmt.Errorf("vtest: field %q not found", name)
	}
	sigID := el.attrs["data-bind"]
	if sigID == "" {
		return fmt.Errorf("vtest: field %q has no data-bind", name)
	}
	p.signals[sigID] = value
	return nil
}

// FillLabel fills the field whose label text matches the pattern.
func (p *Page) FillLabel(label, value string) error {
	name, err := p.nameForLabel(label)
	if err != nil {
		return err
	}
	return p.Fill(name, value)
}

// Blur moves focus away from the field named name, firing its blur action.
func (p *Page) Blur(name string) error {
	el, ok := p.field(name)
	if !ok {
		return fmt.Errorf("vtest: field %q not found", name)
	}
	target := el.action("blur")
	if target == "" {
		return fmt.Errorf("vtest: field %q has no blur action", name)
	}
	return p.trigger(target)
}

// BlurLabel blurs the field whose label text matches the pattern.
func (p *Page) BlurLabel(label string) error {
	name, err := p.nameForLabel(label)
	if err != nil {
		return err
	}
	return p.Blur(name)
}

// Value returns the current value of the signal bound to the field named name.
func (p *Page) Value(name string) string {
	el, ok := p.field(name)
	if !ok {
		return ""
	}
	return p.signals[el.attrs["data-bind"]]
}

// TestIDTexts returns the text of every element with the given data-testid,
// in document order.
func (p *Page) TestIDTexts(id string) []string {
	var out []string
	for _, el := range findElements(p.html, `[a-z0-9]+`) {
		if el.attrs["data-testid"] == id {
			out = append(out, collapse(el.text))
		}
	}
	return out
}

// AssertText asserts the page contains the given text.
// Handles both static text and Datastar data-text signals.
func (p *Page) AssertText(t testing.TB, text string) {
	t.Helper()
	if !strings.Contains(p.visibleText(), text) {
		t.Fatalf("expected page to contain %q, html:\n%s", text, p.html)
	}
}

// AssertNoText asserts the page does not contain the given text.
func (p *Page) AssertNoText(t testing.TB, text string) {
	t.Helper()
	if strings.Contains(p.visibleText(), text) {
		t.Fatalf("expected page not to contain %q, html:\n%s", text, p.html)
	}
}

// AssertNoTestID asserts no element carries the given data-testid.
func (p *Page) AssertNoTestID(t testing.TB, id string) {
	t.Helper()
	if texts := p.TestIDTexts(id); len(texts) > 0 {
		t.Fatalf("expected no element with data-testid %q, found %q", id, texts)
	}
}

// Close releases the page's SSE connection.
func (p *Page) Close() {
	if p.sse != nil {
		p.sse.Close()
	}
}

func (p *Page) enclosingForm(el element) (element, bool) {
	for _, f := range findElements(p.html, "form") {
		if f.start < el.start && el.start < f.end {
			return f, true
		}
	}
	return element{}, false
}

func (p *Page) field(name string) (element, bool) {
	for _, el := range findElements(p.html, "input|textarea") {
		if el.attrs["name"] == name {
			return el, true
		}
	}
	return element{}, false
}

func (p *Page) nameForLabel(pattern string) (string, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return "", err
	}
	for _, l := range findElements(p.html, "label") {
		if !re.MatchString(collapse(l.text)) {
			continue
		}
		id := l.attrs["for"]
		for _, el := range findElements(p.html, "input|textarea") {
			if el.attrs["id"] == id {
				return el.attrs["name"], nil
			}
		}
		return "", fmt.Errorf("vtest: label %q is not associated with a field", pattern)
	}
	return "", fmt.Errorf("vtest: label %q not found", pattern)
}

func (p *Page) trigger(actionURL string) error {
	signalsJSON, err := json.Marshal(p.signals)
	if err != nil {
		return err
	}
	before := len(p.sse.events())

	req := httptest.NewRequest(http.MethodGet, actionURL+"?datastar="+url.QueryEscape(string(signalsJSON)), nil)
	w := httptest.NewRecorder()
	p.handler.ServeHTTP(w, req)
	if w.Code >= http.StatusBadRequest {
		return fmt.Errorf("vtest: action %s: status %d: %s", actionURL, w.Code, strings.TrimSpace(w.Body.String()))
	}

	deadline := time.Now().Add(patchTimeout)
	for len(p.sse.events()) <= before {
		if time.Now().After(deadline) {
			return errors.New("vtest: timed out waiting for patch")
		}
		time.Sleep(5 * time.Millisecond)
	}
	// let the rest of the action's patches arrive
	for n := len(p.sse.events()); ; {
		time.Sleep(20 * time.Millisecond)
		m := len(p.sse.events())
		if m == n {
			break
		}
		n = m
	}
	p.applyEvents()
	return nil
}

func (p *Page) applyEvents() {
	events := p.sse.events()
	for _, ev := range events[p.applied:] {
		switch ev.kind {
		case "elements":
			p.html = ev.data
		case "signals":
			var sigs map[string]any
			if err := json.Unmarshal([]byte(ev.data), &sigs); err == nil {
				for k, v := range sigs {
					p.signals[k] = fmt.Sprint(v)
				}
			}
		}
	}
	p.applied = len(events)
}

// visibleText returns the text content with data-text signals resolved.
func (p *Page) visibleText() string {
	doc := dataTextRe.ReplaceAllStringFunc(p.html, func(m string) string {
		sub := dataTextRe.FindStringSubmatch(m)
		return p.signals[sub[1]]
	})
	return collapse(doc)
}

var (
	dataTextRe = regexp.MustCompile(`<[^>]*data-text="\$([^"]+)"[^>]*></[^>]+>`)
	tagRe      = regexp.MustCompile(`<[^>]+>`)
	spaceRe    = regexp.MustCompile(`\s+`)
	attrRe     = regexp.MustCompile(`([^\s="'<>/]+)(?:="([^"]*)")?`)
	signalsRe  = regexp.MustCompile(`data-signals="([^"]*)"`)
)

// collapse strips tags, decodes entities and collapses whitespace.
func collapse(s string) string {
	s = tagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

type element struct {
	tag   string
	attrs map[string]string
	text  string

	// byte offsets of the element in the document
	start, end int
}

// action returns the action URL bound to event, e.g. "click" or "blur".
func (e element) action(event string) string {
	for name, v := range e.attrs {
		if name != "data-on:"+event && !strings.HasPrefix(name, "data-on:"+event+"__") {
			continue
		}
		if m := actionURLRe.FindStringSubmatch(v); m != nil {
			return m[1]
		}
	}
	return ""
}

var actionURLRe = regexp.MustCompile(`@get\('([^']+)'\)`)

// findElements returns elements whose tag matches tagPattern. Void elements
// have no text; other elements are matched up to their first closing tag.
func findElements(doc, tagPattern string) []element {
	re := regexp.MustCompile(`<(` + tagPattern + `)(\s[^>]*)?>`)
	var out []element
	for _, loc := range re.FindAllStringSubmatchIndex(doc, -1) {
		tag := doc[loc[2]:loc[3]]
		var rawAttrs string
		if loc[4] >= 0 {
			rawAttrs = doc[loc[4]:loc[5]]
		}
		el := element{tag: tag, attrs: parseAttrs(rawAttrs), start: loc[0], end: loc[1]}
		closing := "</" + tag + ">"
		if end := strings.Index(doc[loc[1]:], closing); end >= 0 {
			el.text = doc[loc[1] : loc[1]+end]
			el.end = loc[1] + end + len(closing)
		}
		out = append(out, el)
	}
	return out
}

func parseAttrs(raw string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range attrRe.FindAllStringSubmatch(raw, -1) {
		attrs[m[1]] = html.UnescapeString(m[2])
	}
	return attrs
}

func extractSignals(doc string) map[string]string {
	signals := make(map[string]string)
	for _, m := range signalsRe.FindAllStringSubmatch(doc, -1) {
		var sigs map[string]any
		if err := json.Unmarshal([]byte(html.UnescapeString(m[1])), &sigs); err != nil {
			continue
		}
		for k, v := range sigs {
			signals[k] = fmt.Sprint(v)
		}
	}
	return signals
}

// Tester provides request level helpers for via apps.
type Tester struct {
	handler http.Handler
}

// New creates a new Tester for the given handler.
func New(handler http.Handler) *Tester {
	return &Tester{handler: handler}
}

// Response wraps an HTTP response with via specific helpers.
type Response struct {
	*httptest.ResponseRecorder
	body string
}

// Get performs a GET request to the given path.
func (t *Tester) Get(path string) *Response {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	t.handler.ServeHTTP(w, req)
	return &Response{ResponseRecorder: w, body: w.Body.String()}
}

// ContextID returns the via context id announced by the page.
func (r *Response) ContextID() string {
	return extractSignals(r.body)[ctxSignal]
}

// AssertStatus asserts the response status code.
func (r *Response) AssertStatus(t testing.TB, expected int) {
	t.Helper()
	if r.Code != expected {
		t.Fatalf("expected status %d, got %d", expected, r.Code)
	}
}

// AssertContains asserts the response body contains the given text.
func (r *Response) AssertContains(t testing.TB, text string) {
	t.Helper()
	if !strings.Contains(r.body, text) {
		t.Fatalf("expected body to contain %q, body:\n%s", text, r.body)
	}
}

// syncedResponseWriter wraps httptest.ResponseRecorder with synchronized access
type syncedResponseWriter struct {
	*httptest.ResponseRecorder
	mu sync.Mutex
}

func (w *syncedResponseWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ResponseRecorder.Write(b)
}

func (w *syncedResponseWriter) WriteHeader(code int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ResponseRecorder.WriteHeader(code)
}

func (w *syncedResponseWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ResponseRecorder.Flush()
}

func (w *syncedResponseWriter) safeBodyString() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ResponseRecorder.Body.String()
}

type event struct {
	kind string
	data string
}

// SSE is an open patch stream for one page context.
type SSE struct {
	recorder *syncedResponseWriter
	cancel   func()
	done     chan struct{}
}

func sseConnect(handler http.Handler, ctxID string) *SSE {
	q, _ := json.Marshal(map[string]string{ctxSignal: ctxID})
	req := httptest.NewRequest(http.MethodGet, "/_sse?datastar="+url.QueryEscape(string(q)), nil)
	req.Header.Set("Accept", "text/event-stream")
	ctx, cancel := context.WithCancel(req.Context())
	req = req.WithContext(ctx)

	w := &syncedResponseWriter{ResponseRecorder: httptest.NewRecorder()}
	s := &SSE{recorder: w, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		handler.ServeHTTP(w, req)
	}()

	// wait for the stream to be accepted
	deadline := time.Now().Add(patchTimeout)
	for w.safeBodyString() == "" && !w.flushed() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	return s
}

func (w *syncedResponseWriter) flushed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ResponseRecorder.Flushed
}

// events parses every complete datastar event received so far.
func (s *SSE) events() []event {
	scanner := bufio.NewScanner(strings.NewReader(s.recorder.safeBodyString()))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var out []event
	fields := map[string][]string{}
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if ev, ok := toEvent(fields); ok {
				out = append(out, ev)
			}
			fields = map[string][]string{}
			continue
		}
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		key, payload, _ := strings.Cut(data, " ")
		fields[key] = append(fields[key], payload)
	}
	return out
}

func toEvent(fields map[string][]string) (event, bool) {
	for _, kind := range []string{"elements", "signals"} {
		if lines, ok := fields[kind]; ok {
			return event{kind: kind, data: strings.Join(lines, "\n")}, true
		}
	}
	return event{}, false
}

// Close ends the SSE request and waits for the handler to return.
func (s *SSE) Close() {
	s.cancel()
	select {
	case <-s.done:
	case <-time.After(patchTimeout):
	}
}
