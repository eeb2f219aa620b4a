package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/purrfectmatch/api/internal/domain"
)

// NoticeRepository implements domain.NoticeRepository using SQLite.
type NoticeRepository struct {
	db *sql.DB
}

// NewNoticeRepository creates a new SQLite-backed NoticeRepository.
func NewNoticeRepository(db *DB) *NoticeRepository {
	return &NoticeRepository{db: db.SqlDB}
}

const noticeColumns = `id, owner_id, category, title, pet_name, birthday, breed, photo_url,
	sex, location, price, comments, promo_date, created_at, updated_at`

func (r *NoticeRepository) Create(ctx context.Context, notice *domain.Notice) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO notices (owner_id, category, title, pet_name, birthday, breed,
			photo_url, sex, location, price, comments, promo_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		notice.OwnerID, notice.Category, notice.Title, notice.PetName, notice.Birthday,
		notice.Breed, notice.PhotoURL, notice.Sex, notice.Location, priceValue(notice.Price),
		notice.Comments, notice.PromoDate, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert notice: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	notice.ID = id
	notice.CreatedAt = now
	notice.UpdatedAt = now
	return nil
}

func (r *NoticeRepository) GetByID(ctx context.Context, id int64) (*domain.Notice, error) {
	return r.getWhere(ctx, "id = ?", id)
}

func (r *NoticeRepository) GetOwned(ctx context.Context, id, ownerID int64) (*domain.Notice, error) {
	return r.getWhere(ctx, "id = ? AND owner_id = ?", id, ownerID)
}

func (r *NoticeRepository) getWhere(ctx context.Context, cond string, args ...any) (*domain.Notice, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+noticeColumns+` FROM notices WHERE `+cond, args...)

	notice, err := scanNotice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query notice: %w", err)
	}

	if err := r.loadFavorites(ctx, notice); err != nil {
		return nil, err
	}
	return notice, nil
}

// UpdateOwned persists the mutable notice fields. The owner id is part of
// the WHERE clause, so updating somebody else's notice reports ErrNotFound.
func (r *NoticeRepository) UpdateOwned(ctx context.Context, notice *domain.Notice) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE notices SET category = ?, title = ?, pet_name = ?, birthday = ?, breed = ?,
			photo_url = ?, sex = ?, location = ?, price = ?, comments = ?, promo_date = ?,
			updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		notice.Category, notice.Title, notice.PetName, notice.Birthday, notice.Breed,
		notice.PhotoURL, notice.Sex, notice.Location, priceValue(notice.Price),
		notice.Comments, notice.PromoDate, now, notice.ID, notice.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("update notice: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	notice.UpdatedAt = now
	return nil
}

func (r *NoticeRepository) DeleteOwned(ctx context.Context, id, ownerID int64) (*domain.Notice, error) {
	notice, err := r.GetOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM notices WHERE id = ? AND owner_id = ?", id, ownerID,
	); err != nil {
		return nil, fmt.Errorf("delete notice: %w", err)
	}
	return notice, nil
}

func (r *NoticeRepository) SetFavorite(ctx context.Context, noticeID, userID int64, favorite bool) error {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM notices WHERE id = ?)", noticeID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check notice exists: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}

	if favorite {
		_, err = r.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO notice_favorites (notice_id, user_id) VALUES (?, ?)",
			noticeID, userID)
	} else {
		_, err = r.db.ExecContext(ctx,
			"DELETE FROM notice_favorites WHERE notice_id = ? AND user_id = ?",
			noticeID, userID)
	}
	if err != nil {
		return fmt.Errorf("set favorite: %w", err)
	}
	return nil
}

// List builds a filtered listing query. Promoted and freshly posted
// notices come first (promo_date defaults to the creation time).
func (r *NoticeRepository) List(ctx context.Context, filter domain.NoticeFilter) ([]domain.Notice, int, error) {
	var conds []string
	var args []any

	if filter.Title != "" {
		conds = append(conds, "title LIKE '%' || ? || '%' COLLATE NOCASE")
		args = append(args, filter.Title)
	}
	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Sex != "" {
		conds = append(conds, "sex = ?")
		args = append(args, filter.Sex)
	}
	if filter.Location != "" {
		conds = append(conds, "location = ?")
		args = append(args, filter.Location)
	}
	if filter.Own != nil {
		if *filter.Own {
			conds = append(conds, "owner_id = ?")
		} else {
			conds = append(conds, "owner_id <> ?")
		}
		args = append(args, filter.ViewerID)
	}
	if filter.Favorite != nil {
		sub := "EXISTS (SELECT 1 FROM notice_favorites f WHERE f.notice_id = notices.id AND f.user_id = ?)"
		if !*filter.Favorite {
			sub = "NOT " + sub
		}
		conds = append(conds, sub)
		args = append(args, filter.ViewerID)
	}
	if len(filter.AgeRanges) > 0 {
		ranges := make([]string, len(filter.AgeRanges))
		for i, rng := range filter.AgeRanges {
			ranges[i] = "(birthday >= ? AND birthday < ?)"
			args = append(args, rng.From, rng.Until)
		}
		conds = append(conds, "("+strings.Join(ranges, " OR ")+")")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notices"+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notices: %w", err)
	}

	query := "SELECT " + noticeColumns + " FROM notices" + where +
		" ORDER BY promo_date DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query notices: %w", err)
	}
	defer rows.Close()

	var notices []domain.Notice
	for rows.Next() {
		notice, err := scanNotice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan notice: %w", err)
		}
		notices = append(notices, *notice)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate notices: %w", err)
	}

	if err := r.loadFavoritesAll(ctx, notices); err != nil {
		return nil, 0, err
	}
	return notices, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotice(row rowScanner) (*domain.Notice, error) {
	notice := &domain.Notice{}
	var price sql.NullInt64
	err := row.Scan(
		&notice.ID, &notice.OwnerID, &notice.Category, &notice.Title, &notice.PetName,
		&notice.Birthday, &notice.Breed, &notice.PhotoURL, &notice.Sex, &notice.Location,
		&price, &notice.Comments, &notice.PromoDate, &notice.CreatedAt, &notice.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if price.Valid {
		notice.Price = &price.Int64
	}
	return notice, nil
}

func (r *NoticeRepository) loadFavorites(ctx context.Context, notice *domain.Notice) error {
	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id FROM notice_favorites WHERE notice_id = ?", notice.ID)
	if err != nil {
		return fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID int64
		if err := rows.Scan(&userID); err != nil {
			return fmt.Errorf("scan favorite: %w", err)
		}
		notice.Favorites = append(notice.Favorites, userID)
	}
	return rows.Err()
}

func (r *NoticeRepository) loadFavoritesAll(ctx context.Context, notices []domain.Notice) error {
	if len(notices) == 0 {
		return nil
	}

	byID := make(map[int64]*domain.Notice, len(notices))
	placeholders := make([]string, len(notices))
	args := make([]any, len(notices))
	for i := range notices {
		byID[notices[i].ID] = &notices[i]
		placeholders[i] = "?"
		args[i] = notices[i].ID
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT notice_id, user_id FROM notice_favorites WHERE notice_id IN ("+
			strings.Join(placeholders, ", ")+")", args...)
	if err != nil {
		return fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var noticeID, userID int64
		if err := rows.Scan(&noticeID, &userID); err != nil {
			return fmt.Errorf("scan favorite: %w", err)
		}
		if n := byID[noticeID]; n != nil {
			n.Favorites = append(n.Favorites, userID)
		}
	}
	return rows.Err()
}

func priceValue(price *int64) any {
	if price == nil {
		return nil
	}
	return *price
}
