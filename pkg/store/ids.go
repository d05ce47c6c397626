package store

import (
	"github.com/google/uuid"

	"github.com/hrdemo/company/pkg/models"
)

// NewID returns a time ordered identifier (UUIDv7) for backends that do not
// assign their own, so that identifier order follows insertion order.
func NewID() (models.ID, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return models.ID(u.String()), nil
}
