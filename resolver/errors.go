package resolver

import "fmt"

// UsageError reports a relative specifier presented without an importer.
// It aborts resolution for the call; there is nothing to resolve against.
type UsageError struct {
	Specifier string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("cannot resolve relative path %q without an importer", e.Specifier)
}
