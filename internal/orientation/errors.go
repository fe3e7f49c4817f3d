package orientation

import (
	"fmt"
	"strings"
)

// InvalidSideError is returned when a side name is not one of side-1
// through side-6.
type InvalidSideError struct {
	Side string
	Op   string
}

func (e *InvalidSideError) Error() string {
	return fmt.Sprintf("%s: unknown side %q (use %s)",
		e.Op, e.Side, strings.Join(SideNames(), ", "))
}
