package kernel

import "fmt"

// ContractError is a fatal, non-retryable error surfaced when a required
// tensor is missing or has the wrong shape/dtype (spec.md §7a). Execute
// never has partial side effects when it returns one: validation happens
// before any kernel launches.
type ContractError struct {
	Op     OpCode
	Key    string
	Reason string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("kernel: %s: %q: %s", e.Op, e.Key, e.Reason)
}

func missingKey(op OpCode, key string) error {
	return &ContractError{Op: op, Key: key, Reason: "missing required tensor"}
}

func wrongShape(op OpCode, key, reason string) error {
	return &ContractError{Op: op, Key: key, Reason: reason}
}
