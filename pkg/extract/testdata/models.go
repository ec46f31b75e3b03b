// Package testdata contains test types for schema extraction.
package testdata

// Status represents the status of a user.
type Status int

const (
	StatusUnknown Status = iota
	StatusActive
	StatusInactive
)

// Priority represents a priority level using uint.
type Priority uint8

const (
	PriorityLow    Priority = 0
	PriorityMedium Priority = 1
	PriorityHigh   Priority = 2
)

// User represents a user record packed into a fixed bit layout.
type User struct {
	ID       uint32 `bitproto:"ubits,32"`
	Age      int8   `bitproto:"sbits,7"`
	Status   int8   `bitproto:"ubits,2"`
	Score    float32 `bitproto:"fbits,32"`
	Samples  []int16 `bitproto:"sbits,12,repeated=4"`
	Internal string  `bitproto:"-"` // Should be skipped
}

// Address represents a physical address packed into a fixed bit layout.
type Address struct {
	HouseNumber uint16 `bitproto:"ubits,16"`
	ZipCode     uint32 `bitproto:"ubits,20"`
}

// @variant:id=1
//
// Admin is an administrator account, selected as a case of Person.
type Admin struct {
	Level uint8 `bitproto:"ubits,4"`
}

// @variant:id=2
//
// Guest is a restricted account, selected as a case of Person.
type Guest struct {
	ExpiresInDays uint16 `bitproto:"ubits,16"`
}

// @variant:bits=4
//
// Person is a marker interface grouping the account kinds into one variant.
type Person interface {
	isPerson()
}

func (*Admin) isPerson() {}
func (*Guest) isPerson() {}

// privateType is an unexported type that should be excluded by default.
type privateType struct {
	Value uint8 `bitproto:"ubits,8"`
}

// Serializable is a marker interface for types that can be grouped without
// declaring any methods of their own.
type Serializable interface{}

// Ensure Admin and Guest implement Serializable (no methods required).
var _ Serializable = (*Admin)(nil)
var _ Serializable = (*Guest)(nil)
