// Package ocrerr defines the error types shared by extraction and assembly.
//
// Every page-bound error carries the offending page index and the shape that
// was involved so that callers running a batch can tell which page failed.
package ocrerr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// NoPage marks an error that is not bound to a specific page.
const NoPage = -1

// ShapeMismatchError reports malformed page dimensionality or a box/string
// count mismatch.
type ShapeMismatchError struct {
	Page   int
	Shape  []int
	Reason string
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch%s: %s", location(e.Page, e.Shape), e.Reason)
}

// UnsupportedFeatureError reports a capability that was requested but is not implemented.
type UnsupportedFeatureError struct {
	Feature string
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("unsupported feature: %s", e.Feature)
}

// InvalidParameterError reports an invalid option value or degenerate geometry input.
type InvalidParameterError struct {
	Page      int
	Shape     []int
	Parameter string
	Reason    string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %q%s: %s", e.Parameter, location(e.Page, e.Shape), e.Reason)
}

// ShapeMismatch builds a ShapeMismatchError.
func ShapeMismatch(page int, shape []int, format string, args ...any) error {
	return &ShapeMismatchError{Page: page, Shape: copyShape(shape), Reason: fmt.Sprintf(format, args...)}
}

// InvalidParameter builds an InvalidParameterError that is not bound to a page.
func InvalidParameter(name, format string, args ...any) error {
	return &InvalidParameterError{Page: NoPage, Parameter: name, Reason: fmt.Sprintf(format, args...)}
}

// PageError associates an error with the page it aborted.
type PageError struct {
	Page int
	Err  error
}

func (e PageError) Error() string { return fmt.Sprintf("page %d: %v", e.Page, e.Err) }

func (e PageError) Unwrap() error { return e.Err }

// BatchError collects the per-page failures of a batch that was allowed to
// continue past failing pages.
type BatchError struct {
	Total  int
	Errors []PageError
}

func (e *BatchError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, pe := range e.Errors {
		msgs = append(msgs, pe.Error())
	}
	return fmt.Sprintf("%d of %d pages failed: %s", len(e.Errors), e.Total, strings.Join(msgs, "; "))
}

// Unwrap exposes the individual page errors to errors.Is / errors.As.
func (e *BatchError) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, pe := range e.Errors {
		out[i] = pe
	}
	return out
}

// FailedPages returns the sorted indices of the pages that failed.
func (e *BatchError) FailedPages() []int {
	pages := make([]int, len(e.Errors))
	for i, pe := range e.Errors {
		pages[i] = pe.Page
	}
	sort.Ints(pages)
	return pages
}

// PageOf returns the page index carried by err, or NoPage.
func PageOf(err error) int {
	var sm *ShapeMismatchError
	if errors.As(err, &sm) {
		return sm.Page
	}
	var ip *InvalidParameterError
	if errors.As(err, &ip) {
		return ip.Page
	}
	var pe PageError
	if errors.As(err, &pe) {
		return pe.Page
	}
	return NoPage
}

func location(page int, shape []int) string {
	var b strings.Builder
	if page != NoPage {
		fmt.Fprintf(&b, " on page %d", page)
	}
	if len(shape) > 0 {
		parts := make([]string, len(shape))
		for i, d := range shape {
			parts[i] = fmt.Sprint(d)
		}
		fmt.Fprintf(&b, " (shape %s)", strings.Join(parts, "x"))
	}
	return b.String()
}

func copyShape(shape []int) []int {
	if shape == nil {
		return nil
	}
	return append([]int(nil), shape...)
}
