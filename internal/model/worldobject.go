package model

import "strconv"

// Handle identifies an entity in the simulation world.
// Handles are never reused within one world, so a stale handle
// can always be detected by asking the world whether it is still valid.
type Handle uint32

// InvalidHandle is the zero handle; the world never issues it.
const InvalidHandle Handle = 0

// Valid reports whether h is not the zero handle.
// It says nothing about whether the entity still exists.
func (h Handle) Valid() bool {
	return h != InvalidHandle
}

// String returns the decimal handle value.
func (h Handle) String() string {
	return strconv.FormatUint(uint64(h), 10)
}
