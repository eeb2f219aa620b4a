package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/purrfectmatch/api/internal/domain"
)

const (
	petNameMinLength = 2
	petNameMaxLength = 16
	breedMaxLength   = 16
	commentsMin      = 8
	commentsMax      = 120

	defaultNoticeLimit = 12
	maxNoticeLimit     = 100
)

// NoticeInput carries the fields of a new notice.
type NoticeInput struct {
	Category string
	Title    string
	PetName  string
	Birthday time.Time
	Breed    string
	PhotoURL string
	Sex      string
	Location string
	Price    *int64
	Comments string
}

// NoticeUpdate carries a partial notice update. Nil means "leave unchanged".
type NoticeUpdate struct {
	Category *string
	Title    *string
	PetName  *string
	Birthday *time.Time
	Breed    *string
	PhotoURL *string
	Sex      *string
	Location *string
	Price    *int64
	Comments *string
}

// ListParams are the raw listing query parameters.
type ListParams struct {
	Page     int
	Limit    int
	Title    string
	Category string
	Sex      string
	Location string
	Favorite *bool
	Own      *bool
	Age      []int
}

// NoticeList is one page of listing results.
type NoticeList struct {
	Results      []domain.Notice
	TotalResults int
	Page         int
	TotalPages   int
}

// OwnerContact is the public contact info attached to a notice detail.
type OwnerContact struct {
	Email string
	Phone string
}

// NoticeService is the notice ledger: it creates, updates, deletes, and
// favorites notices, and charges promotion days against the owner's
// balance. Promotion moves promo_date forward only, and listing order is
// promotion recency.
type NoticeService struct {
	notices domain.NoticeRepository
	users   domain.UserRepository
	files   *FileService
}

// NewNoticeService creates a new NoticeService.
func NewNoticeService(notices domain.NoticeRepository, users domain.UserRepository, files *FileService) *NoticeService {
	return &NoticeService{notices: notices, users: users, files: files}
}

// Create validates and persists a new notice. When promoDays is positive
// the owner pays one balance unit per day and the notice starts promoted
// until now+promoDays. The notice insert and the balance debit are two
// separate store writes; a crash in between leaves a promoted notice that
// was never paid for.
func (s *NoticeService) Create(ctx context.Context, owner *domain.User, input NoticeInput, promoDays int) (*domain.Notice, error) {
	if err := validateNotice(input); err != nil {
		return nil, err
	}
	if promoDays < 0 {
		return nil, fmt.Errorf("%w: promo days must not be negative", domain.ErrInvalidInput)
	}
	if promoDays > 0 && owner.Balance < int64(promoDays) {
		return nil, domain.ErrInsufficientFunds
	}

	now := time.Now().UTC()
	notice := &domain.Notice{
		OwnerID:   owner.ID,
		Category:  input.Category,
		Title:     input.Title,
		PetName:   input.PetName,
		Birthday:  input.Birthday,
		Breed:     input.Breed,
		PhotoURL:  input.PhotoURL,
		Sex:       input.Sex,
		Location:  input.Location,
		Price:     input.Price,
		Comments:  input.Comments,
		PromoDate: now.AddDate(0, 0, promoDays),
	}

	if err := s.notices.Create(ctx, notice); err != nil {
		return nil, fmt.Errorf("create notice: %w", err)
	}

	if promoDays > 0 {
		if err := s.users.Debit(ctx, owner.ID, int64(promoDays)); err != nil {
			return nil, fmt.Errorf("debit promotion: %w", err)
		}
		owner.Balance -= int64(promoDays)
	}
	return notice, nil
}

// Update applies a partial update to an owned notice. Ownership is part
// of the lookup, so a missing notice and somebody else's notice both come
// back ErrNotFound. The category/price coupling is re-checked against the
// resulting values. Buying promoDays extends the promotion from the later
// of now and the current expiry, so a lapsed promotion restarts from now.
func (s *NoticeService) Update(ctx context.Context, owner *domain.User, id int64, update NoticeUpdate, promoDays int) (*domain.Notice, error) {
	notice, err := s.notices.GetOwned(ctx, id, owner.ID)
	if err != nil {
		return nil, err
	}

	oldPhotoURL := notice.PhotoURL

	if update.Category != nil {
		notice.Category = *update.Category
	}
	if update.Title != nil {
		notice.Title = *update.Title
	}
	if update.PetName != nil {
		notice.PetName = *update.PetName
	}
	if update.Birthday != nil {
		notice.Birthday = *update.Birthday
	}
	if update.Breed != nil {
		notice.Breed = *update.Breed
	}
	if update.PhotoURL != nil {
		notice.PhotoURL = *update.PhotoURL
	}
	if update.Sex != nil {
		notice.Sex = *update.Sex
	}
	if update.Location != nil {
		notice.Location = *update.Location
	}
	if update.Comments != nil {
		notice.Comments = *update.Comments
	}
	if update.Price != nil {
		notice.Price = update.Price
	}
	if notice.Category != domain.CategorySell {
		if update.Price != nil {
			return nil, fmt.Errorf("%w: price is only allowed for the %q category",
				domain.ErrInvalidInput, domain.CategorySell)
		}
		notice.Price = nil
	}

	if err := validateNotice(NoticeInput{
		Category: notice.Category,
		Title:    notice.Title,
		PetName:  notice.PetName,
		Birthday: notice.Birthday,
		Breed:    notice.Breed,
		PhotoURL: notice.PhotoURL,
		Sex:      notice.Sex,
		Location: notice.Location,
		Price:    notice.Price,
		Comments: notice.Comments,
	}); err != nil {
		return nil, err
	}

	if promoDays < 0 {
		return nil, fmt.Errorf("%w: promo days must not be negative", domain.ErrInvalidInput)
	}
	if promoDays > 0 {
		if owner.Balance < int64(promoDays) {
			return nil, domain.ErrInsufficientFunds
		}
		base := notice.PromoDate
		if now := time.Now().UTC(); base.Before(now) {
			base = now
		}
		notice.PromoDate = base.AddDate(0, 0, promoDays)
	}

	if err := s.notices.UpdateOwned(ctx, notice); err != nil {
		return nil, err
	}

	if notice.PhotoURL != oldPhotoURL {
		s.files.DeleteByURL(ctx, oldPhotoURL)
	}

	if promoDays > 0 {
		if err := s.users.Debit(ctx, owner.ID, int64(promoDays)); err != nil {
			return nil, fmt.Errorf("debit promotion: %w", err)
		}
		owner.Balance -= int64(promoDays)
	}
	return notice, nil
}

// Remove deletes an owned notice and cleans up its stored photo.
func (s *NoticeService) Remove(ctx context.Context, owner *domain.User, id int64) (*domain.Notice, error) {
	notice, err := s.notices.DeleteOwned(ctx, id, owner.ID)
	if err != nil {
		return nil, err
	}
	s.files.DeleteByURL(ctx, notice.PhotoURL)
	return notice, nil
}

// SetFavorite adds or removes the user from the notice's favorites set
// and returns the refreshed notice. Both directions are idempotent.
func (s *NoticeService) SetFavorite(ctx context.Context, noticeID, userID int64, favorite bool) (*domain.Notice, error) {
	if err := s.notices.SetFavorite(ctx, noticeID, userID, favorite); err != nil {
		return nil, err
	}
	return s.notices.GetByID(ctx, noticeID)
}

// Get returns a notice together with its owner's contact info.
func (s *NoticeService) Get(ctx context.Context, id int64) (*domain.Notice, *OwnerContact, error) {
	notice, err := s.notices.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	owner, err := s.users.GetByID(ctx, notice.OwnerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return notice, nil, nil
		}
		return nil, nil, fmt.Errorf("get owner: %w", err)
	}
	return notice, &OwnerContact{Email: owner.Email, Phone: owner.Phone}, nil
}

// List runs a filtered, paginated listing query. The own and favorite
// flags require an authenticated viewer. Age buckets translate to
// birthday ranges relative to now and combine as a union.
func (s *NoticeService) List(ctx context.Context, viewer *domain.User, params ListParams) (*NoticeList, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit < 1 {
		limit = defaultNoticeLimit
	}
	if limit > maxNoticeLimit {
		limit = maxNoticeLimit
	}

	if (params.Own != nil || params.Favorite != nil) && viewer == nil {
		return nil, domain.ErrUnauthorized
	}
	if params.Category != "" && !validCategory(params.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, params.Category)
	}
	if params.Sex != "" && params.Sex != domain.SexMale && params.Sex != domain.SexFemale {
		return nil, fmt.Errorf("%w: sex must be %q or %q", domain.ErrInvalidInput, domain.SexMale, domain.SexFemale)
	}

	ranges, err := AgeRanges(time.Now().UTC(), params.Age)
	if err != nil {
		return nil, err
	}

	filter := domain.NoticeFilter{
		Title:     params.Title,
		Category:  params.Category,
		Sex:       params.Sex,
		Location:  params.Location,
		Own:       params.Own,
		Favorite:  params.Favorite,
		AgeRanges: ranges,
		Limit:     limit,
		Offset:    (page - 1) * limit,
	}
	if viewer != nil {
		filter.ViewerID = viewer.ID
	}

	notices, total, err := s.notices.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &NoticeList{
		Results:      notices,
		TotalResults: total,
		Page:         page,
		TotalPages:   (total + limit - 1) / limit,
	}, nil
}

// AgeRanges expands full-year age buckets into half-open birthday ranges
// [now-(bucket+1)y, now-bucket y). Multiple buckets form a union.
func AgeRanges(now time.Time, buckets []int) ([]domain.DateRange, error) {
	ranges := make([]domain.DateRange, 0, len(buckets))
	for _, bucket := range buckets {
		if bucket < 0 {
			return nil, fmt.Errorf("%w: age must not be negative", domain.ErrInvalidInput)
		}
		ranges = append(ranges, domain.DateRange{
			From:  now.AddDate(-(bucket + 1), 0, 0),
			Until: now.AddDate(-bucket, 0, 0),
		})
	}
	return ranges, nil
}

func validateNotice(input NoticeInput) error {
	if !validCategory(input.Category) {
		return fmt.Errorf("%w: category must be one of %q, %q, %q", domain.ErrInvalidInput,
			domain.CategorySell, domain.CategoryLostFound, domain.CategoryForFree)
	}
	if input.Title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if l := len(input.PetName); l < petNameMinLength || l > petNameMaxLength {
		return fmt.Errorf("%w: pet name must be %d to %d characters", domain.ErrInvalidInput,
			petNameMinLength, petNameMaxLength)
	}
	if input.Birthday.IsZero() {
		return fmt.Errorf("%w: birthday is required", domain.ErrInvalidInput)
	}
	if len(input.Breed) > breedMaxLength {
		return fmt.Errorf("%w: breed must be at most %d characters", domain.ErrInvalidInput, breedMaxLength)
	}
	if input.PhotoURL == "" {
		return fmt.Errorf("%w: pet photo is required", domain.ErrInvalidInput)
	}
	if input.Sex != domain.SexMale && input.Sex != domain.SexFemale {
		return fmt.Errorf("%w: sex must be %q or %q", domain.ErrInvalidInput, domain.SexMale, domain.SexFemale)
	}
	if input.Location == "" {
		return fmt.Errorf("%w: location is required", domain.ErrInvalidInput)
	}

	if input.Category == domain.CategorySell {
		if input.Price == nil {
			return fmt.Errorf("%w: price is required for the %q category", domain.ErrInvalidInput, domain.CategorySell)
		}
		if *input.Price <= 0 {
			return fmt.Errorf("%w: price must be positive", domain.ErrInvalidInput)
		}
	} else if input.Price != nil {
		return fmt.Errorf("%w: price is only allowed for the %q category", domain.ErrInvalidInput, domain.CategorySell)
	}

	if input.Comments != "" {
		if l := len(input.Comments); l < commentsMin || l > commentsMax {
			return fmt.Errorf("%w: comments must be %d to %d characters", domain.ErrInvalidInput,
				commentsMin, commentsMax)
		}
	}
	return nil
}

func validCategory(category string) bool {
	switch category {
	case domain.CategorySell, domain.CategoryLostFound, domain.CategoryForFree:
		return true
	}
	return false
}
