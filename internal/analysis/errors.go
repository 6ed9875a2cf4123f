package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/BurntSushi/toml"
)

// ErrorKind classifies a failure.
type ErrorKind string

// Error kinds.
const (
	KindInvalidPath ErrorKind = "invalid_path"
	KindNotFound    ErrorKind = "not_found"
	KindPermission  ErrorKind = "permission"
	KindParse       ErrorKind = "parse"
	KindTimeout     ErrorKind = "timeout"
	KindIO          ErrorKind = "io"
)

// ErrPathRequired is returned for an empty request path.
var ErrPathRequired = errors.New("path is required")

// ComponentError records one failed component. Component is empty for
// request-level failures.
type ComponentError struct {
	Component string
	Kind      ErrorKind
	Err       error
}

func (e *ComponentError) Error() string {
	if e.Component == "" {
		return e.Err.Error()
	}
	return e.Component + ": " + e.Err.Error()
}

func (e *ComponentError) Unwrap() error { return e.Err }

// KindOf returns the kind carried by err, classifying unwrapped errors.
func KindOf(err error) ErrorKind {
	var ce *ComponentError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return classify(err)
}

func classify(err error) ErrorKind {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		tomlErr   toml.ParseError
	)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return KindNotFound
	case errors.Is(err, os.ErrPermission):
		return KindPermission
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.As(err, &tomlErr):
		return KindParse
	default:
		return KindIO
	}
}
