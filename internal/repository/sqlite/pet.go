package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/purrfectmatch/api/internal/domain"
)

// PetRepository implements domain.PetRepository using SQLite.
type PetRepository struct {
	db *sql.DB
}

// NewPetRepository creates a new SQLite-backed PetRepository.
func NewPetRepository(db *DB) *PetRepository {
	return &PetRepository{db: db.SqlDB}
}

const petColumns = `id, owner_id, pet_name, birthday, breed, photo_url, comments,
	created_at, updated_at`

func (r *PetRepository) Create(ctx context.Context, pet *domain.Pet) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO pets (owner_id, pet_name, birthday, breed, photo_url, comments,
			created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		pet.OwnerID, pet.PetName, pet.Birthday, pet.Breed, pet.PhotoURL, pet.Comments,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("insert pet: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	pet.ID = id
	pet.CreatedAt = now
	pet.UpdatedAt = now
	return nil
}

func (r *PetRepository) ListByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]domain.Pet, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+petColumns+` FROM pets WHERE owner_id = ?
		 ORDER BY updated_at DESC, id DESC LIMIT ? OFFSET ?`,
		ownerID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query pets: %w", err)
	}
	defer rows.Close()

	var pets []domain.Pet
	for rows.Next() {
		var pet domain.Pet
		if err := rows.Scan(
			&pet.ID, &pet.OwnerID, &pet.PetName, &pet.Birthday, &pet.Breed,
			&pet.PhotoURL, &pet.Comments, &pet.CreatedAt, &pet.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan pet: %w", err)
		}
		pets = append(pets, pet)
	}
	return pets, rows.Err()
}

func (r *PetRepository) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM pets WHERE owner_id = ?", ownerID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pets: %w", err)
	}
	return count, nil
}

func (r *PetRepository) DeleteOwned(ctx context.Context, id, ownerID int64) (*domain.Pet, error) {
	pet := &domain.Pet{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+petColumns+` FROM pets WHERE id = ? AND owner_id = ?`, id, ownerID,
	).Scan(
		&pet.ID, &pet.OwnerID, &pet.PetName, &pet.Birthday, &pet.Breed,
		&pet.PhotoURL, &pet.Comments, &pet.CreatedAt, &pet.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query pet: %w", err)
	}

	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM pets WHERE id = ? AND owner_id = ?", id, ownerID,
	); err != nil {
		return nil, fmt.Errorf("delete pet: %w", err)
	}
	return pet, nil
}
