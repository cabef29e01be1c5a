package extractor

import (
	"errors"
	"fmt"

	"github.com/go-rod/rod"
)

// ErrElementNotFound means the selector matched nothing under its root.
var ErrElementNotFound = errors.New("element not found")

// Extractor pulls markup out of a rendered page
type Extractor struct {
	page *rod.Page
}

// NewExtractor creates a new Extractor instance
func NewExtractor(page *rod.Page) *Extractor {
	return &Extractor{page: page}
}

// OuterHTML returns the outer HTML of the first element matching selector inside root.
// The lookup does not wait: a missing element is reported at once as ErrElementNotFound.
// A nil root searches the whole page.
func (e *Extractor) OuterHTML(root *rod.Element, selector string) (string, error) {
	var (
		found bool
		el    *rod.Element
		err   error
	)
	if root != nil {
		found, el, err = root.Has(selector)
	} else {
		found, el, err = e.page.Has(selector)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query '%s': %w", selector, err)
	}
	if !found {
		return "", fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}

	html, err := el.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get element HTML: %w", err)
	}
	return html, nil
}

// Title returns the document title
func (e *Extractor) Title() (string, error) {
	result, err := e.page.Eval(`() => document.title`)
	if err != nil {
		return "", fmt.Errorf("failed to get page title: %w", err)
	}
	return result.Value.Str(), nil
}
