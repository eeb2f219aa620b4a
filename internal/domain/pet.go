package domain

import (
	"context"
	"time"
)

// Pet is an animal on a user's personal profile, not offered on the
// marketplace.
type Pet struct {
	ID        int64
	OwnerID   int64
	PetName   string
	Birthday  time.Time
	Breed     string
	PhotoURL  string
	Comments  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PetRepository defines persistence operations for pets.
type PetRepository interface {
	Create(ctx context.Context, pet *Pet) error
	ListByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]Pet, error)
	CountByOwner(ctx context.Context, ownerID int64) (int, error)
	// DeleteOwned removes an owned pet and returns it.
	DeleteOwned(ctx context.Context, id, ownerID int64) (*Pet, error)
}
