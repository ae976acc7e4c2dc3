package pipeline

import "fmt"

// RenameError reports a failed move of Source to Dest. The source file is
// left where it was.
type RenameError struct {
	Source string
	Dest   string
	Err    error
}

func (e *RenameError) Error() string {
	return fmt.Sprintf("rename %s -> %s: %v", e.Source, e.Dest, e.Err)
}

func (e *RenameError) Unwrap() error { return e.Err }
