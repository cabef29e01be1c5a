package kabutan

import (
	"errors"

	"kabuka/internal/browser"
)

// Failure categories. Each fetch failure wraps exactly one of these.
var (
	ErrNavigationTimeout  = errors.New("navigation timed out")
	ErrElementNotFound    = errors.New("price table not found, the site structure may have changed")
	ErrStructuralMismatch = errors.New("price table layout changed")
	ErrDriver             = errors.New("browser driver error")
)

// Category labels a failure in logs so a changed site can be told apart from a transient problem.
type Category string

const (
	CategoryTimeout            Category = "timeout"
	CategoryElementNotFound    Category = "element_not_found"
	CategoryStructuralMismatch Category = "structural_mismatch"
	CategoryDriver             Category = "driver_error"
	CategoryValueConversion    Category = "value_conversion"
	CategoryInitialization     Category = "initialization"
	CategoryUnexpected         Category = "unexpected_error"
)

// Categorize returns the log category for an error returned by the fetch pipeline
func Categorize(err error) Category {
	switch {
	case errors.Is(err, ErrNavigationTimeout):
		return CategoryTimeout
	case errors.Is(err, ErrElementNotFound):
		return CategoryElementNotFound
	case errors.Is(err, ErrStructuralMismatch):
		return CategoryStructuralMismatch
	case errors.Is(err, browser.ErrInit):
		return CategoryInitialization
	case errors.Is(err, ErrDriver):
		return CategoryDriver
	default:
		return CategoryUnexpected
	}
}
