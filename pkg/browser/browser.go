// Package browser wraps a headless Chrome session behind the narrow
// navigate / current-URL / query-elements surface the pipeline consumes.
// One session owns one page; navigation is strictly sequential.
package browser

import (
	"context"
	"errors"
)

var (
	// ErrNavigationTimeout marks a page load that did not finish in time.
	ErrNavigationTimeout = errors.New("navigation timed out")
	// ErrElementNotFound marks a selector that matched nothing within the
	// element wait.
	ErrElementNotFound = errors.New("element not found")
)

// Cookie is an opaque cookie handed to the browser as-is.
type Cookie struct {
	Name   string
	Value  string
	Domain string
	Path   string
	Secure bool
}

// Session is the browser surface used by the discoverer and the extractor.
type Session interface {
	// Navigate loads url and waits for the load event, bounded by the
	// configured page-load timeout.
	Navigate(ctx context.Context, url string) error
	// Reload reloads the current page. It does not wait for the load event.
	Reload() error
	// CurrentURL returns the final resolved URL of the current page.
	CurrentURL() (string, error)
	// Element waits up to the element wait for the first match.
	Element(selector string) (Element, error)
	// Elements returns all current matches without waiting.
	Elements(selector string) ([]Element, error)
	SetCookies(cookies []Cookie) error
	Close() error
}

// Element is one DOM element on the current page.
type Element interface {
	Text() (string, error)
	// Attribute returns the named attribute, or "" when absent.
	Attribute(name string) (string, error)
	// Element waits up to the element wait for the first matching descendant.
	Element(selector string) (Element, error)
	// Elements returns all matching descendants without waiting.
	Elements(selector string) ([]Element, error)
}
