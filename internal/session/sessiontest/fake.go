// Package sessiontest provides a scripted in-memory session for tests.
package sessiontest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Page is one scripted page state the fake can be in.
type Page struct {
	URL      string
	Title    string
	HTML     string
	Visible  map[string]bool   // selectors that WaitVisible succeeds on
	Texts    map[string]string // selector -> inner text
	Evals    map[string]any    // expression -> result
	MissText string            // text returned for unknown Text selectors
}

// Fake implements session.Session against scripted pages. Navigation and
// clicks move between pages through the Routes and ClickRoutes tables; every
// call is recorded in Calls for assertion.
type Fake struct {
	mu sync.Mutex

	// Routes maps a URL to the page served for it.
	Routes map[string]*Page
	// ClickRoutes maps "<current url>|<selector>" to the destination URL.
	ClickRoutes map[string]string

	current *Page
	filled  map[string]string
	Calls   []string
	Closed  bool

	// Err, when set, is returned by every subsequent call.
	Err error
	// EvalErr, when set, is returned by result-bearing Evaluate calls,
	// simulating a script that fails in transport while the rest of the
	// session still works. Side-effect scripts are unaffected.
	EvalErr error
}

// New returns a fake positioned on a blank page.
func New() *Fake {
	return &Fake{
		Routes:      map[string]*Page{},
		ClickRoutes: map[string]string{},
		current:     &Page{URL: "about:blank"},
		filled:      map[string]string{},
	}
}

// Filled returns the last value typed into the selector.
func (f *Fake) Filled(selector string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filled[selector]
}

func (f *Fake) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, call)
	return f.Err
}

func (f *Fake) Navigate(ctx context.Context, url string) error {
	if err := f.record("navigate " + url); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if page, ok := f.Routes[url]; ok {
		f.current = page
		return nil
	}
	return fmt.Errorf("no scripted page for %s", url)
}

func (f *Fake) WaitVisible(ctx context.Context, selector string) error {
	if err := f.record("wait " + selector); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current.Visible[selector] {
		return nil
	}
	return fmt.Errorf("selector %s never became visible on %s", selector, f.current.URL)
}

func (f *Fake) Fill(ctx context.Context, selector, value string) error {
	if err := f.record("fill " + selector); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filled[selector] = value
	return nil
}

func (f *Fake) Click(ctx context.Context, selector string) error {
	if err := f.record("click " + selector); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := f.current.URL + "|" + selector
	if dest, ok := f.ClickRoutes[key]; ok {
		if page, ok := f.Routes[dest]; ok {
			f.current = page
			return nil
		}
		return fmt.Errorf("click route %s points at unscripted page %s", key, dest)
	}
	return nil
}

func (f *Fake) Evaluate(ctx context.Context, expression string, out any) error {
	if err := f.record("evaluate"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.EvalErr != nil && out != nil {
		return f.EvalErr
	}
	result, ok := f.current.Evals[expression]
	if !ok {
		if out == nil {
			// Side-effect scripts need no scripted result.
			return nil
		}
		return fmt.Errorf("no scripted result for expression on %s", f.current.URL)
	}
	if out == nil {
		return nil
	}
	return assign(out, result)
}

func (f *Fake) Text(ctx context.Context, selector string) (string, error) {
	if err := f.record("text " + selector); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if text, ok := f.current.Texts[selector]; ok {
		return text, nil
	}
	return f.current.MissText, nil
}

func (f *Fake) HTML(ctx context.Context) (string, error) {
	if err := f.record("html"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current.HTML, nil
}

func (f *Fake) Title(ctx context.Context) (string, error) {
	if err := f.record("title"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current.Title, nil
}

func (f *Fake) Location(ctx context.Context) (string, error) {
	if err := f.record("location"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current.URL, nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// assign copies the scripted value into the caller's target through a JSON
// round-trip, mirroring how chromedp unmarshals evaluate results.
func assign(out any, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("scripted result not marshalable: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("scripted result does not fit %T: %w", out, err)
	}
	return nil
}
