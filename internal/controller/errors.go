package controller

import "fmt"

// MissingDataError names a required data field that is absent. Nothing in
// this package returns it: a CodeRun whose platform fields are unset fails
// rendering with render.InvalidDataError, and that error is what reaches
// phase=Failed without any Job being created.
type MissingDataError struct {
	Field string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("controller: missing required data %q", e.Field)
}
