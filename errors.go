package dusteffect

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned by Dissolve while another invocation is still animating.
	ErrBusy = errors.New("dust effect is busy with another element")
	// ErrClosed is returned once the rendering surface has been torn down.
	ErrClosed = errors.New("dust effect is closed")
)

// CaptureError wraps a failure of the capture collaborator.
type CaptureError struct {
	Element ElementID
	Err     error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture element %q: %v", string(e.Element), e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// OptionsError reports an option value that cannot be used.
type OptionsError struct {
	Field string
	Value any
}

func (e *OptionsError) Error() string {
	return fmt.Sprintf("invalid option %s: %v", e.Field, e.Value)
}
