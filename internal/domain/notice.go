package domain

import (
	"context"
	"time"
)

// Notice categories.
const (
	CategorySell      = "sell"
	CategoryLostFound = "lost-found"
	CategoryForFree   = "for-free"
)

// Pet sexes.
const (
	SexMale   = "male"
	SexFemale = "female"
)

// Notice is a marketplace listing for a pet.
//
// Price is set only for the sell category. PromoDate is the promotion
// expiry; unpromoted notices carry their creation time, so sorting by
// PromoDate descending puts promoted and freshly posted notices first.
type Notice struct {
	ID        int64
	OwnerID   int64
	Category  string
	Title     string
	PetName   string
	Birthday  time.Time
	Breed     string
	PhotoURL  string
	Sex       string
	Location  string
	Price     *int64
	Comments  string
	PromoDate time.Time
	Favorites []int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FavoritedBy reports whether the user has favorited the notice.
func (n *Notice) FavoritedBy(userID int64) bool {
	for _, id := range n.Favorites {
		if id == userID {
			return true
		}
	}
	return false
}

// DateRange is a half-open birthday interval [From, Until).
type DateRange struct {
	From  time.Time
	Until time.Time
}

// NoticeFilter selects notices for a listing query. Zero-value string
// fields and nil booleans mean "no filter". Own and Favorite are resolved
// against ViewerID. Multiple AgeRanges combine as a union.
type NoticeFilter struct {
	Title     string
	Category  string
	Sex       string
	Location  string
	Own       *bool
	Favorite  *bool
	ViewerID  int64
	AgeRanges []DateRange
	Limit     int
	Offset    int
}

// NoticeRepository defines persistence operations for notices.
type NoticeRepository interface {
	Create(ctx context.Context, notice *Notice) error
	GetByID(ctx context.Context, id int64) (*Notice, error)
	// GetOwned looks up a notice by id and owner. A notice that exists but
	// belongs to somebody else reports ErrNotFound.
	GetOwned(ctx context.Context, id, ownerID int64) (*Notice, error)
	UpdateOwned(ctx context.Context, notice *Notice) error
	// DeleteOwned removes an owned notice and returns it.
	DeleteOwned(ctx context.Context, id, ownerID int64) (*Notice, error)
	// SetFavorite adds or removes the user from the notice's favorites
	// set. Both directions are idempotent.
	SetFavorite(ctx context.Context, noticeID, userID int64, favorite bool) error
	// List returns one page of matching notices plus the total match count.
	List(ctx context.Context, filter NoticeFilter) ([]Notice, int, error)
}
