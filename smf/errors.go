package smf

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnexpectedEOF is returned when a read runs past the end of the data.
	ErrUnexpectedEOF = errors.New("unexpected end of data")
	// ErrInvalidFormat marks data that is not a well-formed Standard MIDI File.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrInvalidInput marks note input the encoder refuses.
	ErrInvalidInput = errors.New("invalid note input")
)

// FormatError is returned by Decode for every failure. Truncated data and
// malformed data are reported the same way; Err holds the underlying cause.
type FormatError struct {
	Offset int
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("smf: offset %d: %v", e.Offset, e.Err)
}

func (e *FormatError) Unwrap() []error {
	return []error{ErrInvalidFormat, e.Err}
}

// InputError describes a rejected note. Track and Index are -1 when the
// problem is not tied to a single note.
type InputError struct {
	Track  int
	Index  int
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	switch {
	case e.Track < 0:
		return fmt.Sprintf("smf: %s: %s", e.Field, e.Reason)
	case e.Index < 0:
		return fmt.Sprintf("smf: track %d: %s: %s", e.Track, e.Field, e.Reason)
	}
	return fmt.Sprintf("smf: track %d note %d: %s: %s", e.Track, e.Index, e.Field, e.Reason)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }
