package service

import (
	"context"
	"fmt"
	"time"

	"github.com/purrfectmatch/api/internal/domain"
)

const (
	defaultPetLimit = 20
	maxPetLimit     = 100
)

// PetInput carries the fields of a new pet.
type PetInput struct {
	PetName  string
	Birthday time.Time
	Breed    string
	PhotoURL string
	Comments string
}

// PetList is one page of a user's pets.
type PetList struct {
	Results      []domain.Pet
	TotalResults int
	Page         int
	TotalPages   int
}

// PetService manages a user's own pets.
type PetService struct {
	pets  domain.PetRepository
	files *FileService
}

// NewPetService creates a new PetService.
func NewPetService(pets domain.PetRepository, files *FileService) *PetService {
	return &PetService{pets: pets, files: files}
}

// List returns one page of the owner's pets, most recently updated first.
func (s *PetService) List(ctx context.Context, ownerID int64, page, limit int) (*PetList, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPetLimit
	}
	if limit > maxPetLimit {
		limit = maxPetLimit
	}

	total, err := s.pets.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	pets, err := s.pets.ListByOwner(ctx, ownerID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	return &PetList{
		Results:      pets,
		TotalResults: total,
		Page:         page,
		TotalPages:   (total + limit - 1) / limit,
	}, nil
}

// Create validates and persists a new pet.
func (s *PetService) Create(ctx context.Context, ownerID int64, input PetInput) (*domain.Pet, error) {
	if l := len(input.PetName); l < petNameMinLength || l > petNameMaxLength {
		return nil, fmt.Errorf("%w: pet name must be %d to %d characters", domain.ErrInvalidInput,
			petNameMinLength, petNameMaxLength)
	}
	if input.Birthday.IsZero() {
		return nil, fmt.Errorf("%w: birthday is required", domain.ErrInvalidInput)
	}
	if len(input.Breed) > breedMaxLength {
		return nil, fmt.Errorf("%w: breed must be at most %d characters", domain.ErrInvalidInput, breedMaxLength)
	}
	if input.PhotoURL == "" {
		return nil, fmt.Errorf("%w: pet photo is required", domain.ErrInvalidInput)
	}

	pet := &domain.Pet{
		OwnerID:  ownerID,
		PetName:  input.PetName,
		Birthday: input.Birthday,
		Breed:    input.Breed,
		PhotoURL: input.PhotoURL,
		Comments: input.Comments,
	}

	if err := s.pets.Create(ctx, pet); err != nil {
		return nil, fmt.Errorf("create pet: %w", err)
	}
	return pet, nil
}

// Remove deletes an owned pet and cleans up its stored photo.
func (s *PetService) Remove(ctx context.Context, ownerID, id int64) (*domain.Pet, error) {
	pet, err := s.pets.DeleteOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	s.files.DeleteByURL(ctx, pet.PhotoURL)
	return pet, nil
}
