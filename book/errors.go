package book

import "fmt"

// ReadError reports an input container that cannot be read or is not a
// structurally valid EPUB.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("read epub: %v", e.Err)
	}
	return fmt.Sprintf("read epub %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError reports a failure to serialize a package.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("write epub: %v", e.Err)
	}
	return fmt.Sprintf("write epub %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
