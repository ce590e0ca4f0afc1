package errors

import (
	goerrors "errors"
)

// The helpers below forward to the standard library so callers only need to
// import this package.

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return goerrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return goerrors.As(err, target)
}

// Join returns an error that wraps the given errors, discarding nils.
func Join(errs ...error) error {
	return goerrors.Join(errs...)
}

// Plain returns an unstructured sentinel error, for package-level
// "not found"-style values that callers compare with Is.
func Plain(text string) error {
	return goerrors.New(text)
}
