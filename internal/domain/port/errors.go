package port

import "fmt"

// ContractViolation reports registry misuse by the calling protocol, such as
// a Lookup for a handle that was never registered. Lookup panics with it.
type ContractViolation struct {
	Op     string
	Handle Handle
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("port registry: %s of unregistered handle %s", e.Op, e.Handle)
}
