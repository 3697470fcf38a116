package types

import "github.com/google/uuid"

type ID string

// NewID returns a random identifier in uuid form.
func NewID() ID {
	return ID(uuid.NewString())
}
