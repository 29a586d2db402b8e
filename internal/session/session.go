// Package session abstracts the headless browser behind a small driving
// interface so scrape strategies can be tested against a scripted fake.
package session

import "context"

// Session is the browser surface the scrape strategies drive. Selectors are
// CSS. Implementations must be safe for use from a single goroutine; each
// worker owns its own Session.
type Session interface {
	// Navigate loads the given URL and waits for the page to be ready.
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until the selector matches a visible node.
	WaitVisible(ctx context.Context, selector string) error
	// Fill clears the matched input and types the value into it.
	Fill(ctx context.Context, selector, value string) error
	// Click clicks the first node matching the selector.
	Click(ctx context.Context, selector string) error
	// Evaluate runs the JavaScript expression and unmarshals the result
	// into out.
	Evaluate(ctx context.Context, expression string, out any) error
	// Text returns the inner text of the first matching node.
	Text(ctx context.Context, selector string) (string, error)
	// HTML returns the full serialized HTML of the current document.
	HTML(ctx context.Context) (string, error)
	// Title returns the current document title.
	Title(ctx context.Context) (string, error)
	// Location returns the current page URL.
	Location(ctx context.Context) (string, error)
	// Close tears down the browser tab and its resources.
	Close() error
}
