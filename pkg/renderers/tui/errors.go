package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C) or quit the
	// session before submitting.
	ErrAborted = errors.New("tui: aborted")
	// ErrNoRows is returned when an edit is requested on an empty collection.
	ErrNoRows = errors.New("tui: no rows to edit")
)
