package entity

import "fmt"

// ValidationError is a user-correctable problem with an order request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// StoreIOError means the order store could not be read or written.
// It aborts an order placement.
type StoreIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *StoreIOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("order store: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("order store: %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *StoreIOError) Unwrap() error { return e.Err }

// NotificationError wraps a failed email or SMS dispatch. It is only ever logged.
type NotificationError struct {
	Channel string
	OrderID string
	Err     error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notify %s for order %s: %v", e.Channel, e.OrderID, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }
