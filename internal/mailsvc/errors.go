package mailsvc

import "fmt"

// ConnectionError reports a failure to open or authenticate a connection.
type ConnectionError struct {
	Kind string // "store" or "submission"
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s connection failed: %v", e.Kind, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// SelectError reports that a folder could not be opened.
type SelectError struct {
	Folder string
	Err    error
}

func (e *SelectError) Error() string {
	return fmt.Sprintf("select folder %s failed: %v", e.Folder, e.Err)
}

func (e *SelectError) Unwrap() error { return e.Err }

// FetchError reports that a message could not be retrieved.
type FetchError struct {
	ID  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch message %s failed: %v", e.ID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
