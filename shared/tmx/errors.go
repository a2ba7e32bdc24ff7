package tmx

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrFormat           = errors.New("tmx: format error")
	ErrResourceNotFound = errors.New("tmx: resource not found")
	ErrPropertyType     = errors.New("tmx: property type error")
	ErrIndex            = errors.New("tmx: index out of range")
)

// FormatError reports malformed markup or tile data. It aborts the load.
type FormatError struct {
	Path string
	Msg  string
	Err  error
}

func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString("tmx: ")
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }
func (e *FormatError) Unwrap() error        { return e.Err }

func formatErrorf(format string, args ...any) *FormatError {
	return &FormatError{Msg: fmt.Sprintf(format, args...)}
}

// ResourceNotFoundError reports a referenced tileset or image file that does
// not exist.
type ResourceNotFoundError struct {
	Path     string
	Referrer string
	Err      error
}

func (e *ResourceNotFoundError) Error() string {
	if e.Referrer != "" {
		return fmt.Sprintf("tmx: %s (referenced by %s) not found", e.Path, e.Referrer)
	}
	return fmt.Sprintf("tmx: %s not found", e.Path)
}

func (e *ResourceNotFoundError) Is(target error) bool { return target == ErrResourceNotFound }
func (e *ResourceNotFoundError) Unwrap() error        { return e.Err }

// PropertyTypeError reports a property literal that does not parse under its
// declared type tag.
type PropertyTypeError struct {
	Name  string
	Type  string
	Value string
	Err   error
}

func (e *PropertyTypeError) Error() string {
	msg := fmt.Sprintf("tmx: property %q: invalid %s literal %q", e.Name, e.Type, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PropertyTypeError) Is(target error) bool { return target == ErrPropertyType }
func (e *PropertyTypeError) Unwrap() error        { return e.Err }

// IndexError reports an out-of-bounds coordinate. Index and Bounds are
// parallel: Index[i] must lie in [0, Bounds[i]).
type IndexError struct {
	Op     string
	Index  []int
	Bounds []int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("tmx: %s: index %v out of range %v", e.Op, e.Index, e.Bounds)
}

func (e *IndexError) Is(target error) bool { return target == ErrIndex }

// CheckIndex returns an IndexError when any coordinate lies outside its bound.
func CheckIndex(op string, index, bounds []int) error {
	for i := range index {
		if index[i] < 0 || index[i] >= bounds[i] {
			return &IndexError{Op: op, Index: index, Bounds: bounds}
		}
	}
	return nil
}
