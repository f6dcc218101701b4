package pipeline

import "fmt"

// ItemError reports an unexpected failure while translating one item. The
// item is kept with its original bytes and the run continues.
type ItemError struct {
	ID  string
	Err error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %s: %v", e.ID, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// RelocationError reports that the finished book could not be moved into
// the output directory.
type RelocationError struct {
	From string
	To   string
	Err  error
}

func (e *RelocationError) Error() string {
	return fmt.Sprintf("move %s to %s: %v", e.From, e.To, e.Err)
}

func (e *RelocationError) Unwrap() error { return e.Err }
