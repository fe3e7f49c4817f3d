package cube

import (
	"errors"
	"fmt"
)

// ErrUnavailable is returned by Open when the host cannot schedule frames
// or render 3-D transforms.
var ErrUnavailable = errors.New("3-D animation not available")

// MissingTargetError means a selector matched no element.
type MissingTargetError struct {
	Selector string
}

func (e *MissingTargetError) Error() string {
	return fmt.Sprintf("no element matches %q", e.Selector)
}
