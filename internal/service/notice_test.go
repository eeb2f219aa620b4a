package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/purrfectmatch/api/internal/domain"
	"github.com/purrfectmatch/api/internal/repository/sqlite"
	"github.com/purrfectmatch/api/internal/service"
)

func newTestNoticeService(t *testing.T) (*service.NoticeService, *service.AuthService, *sqlite.DB) {
	t.Helper()
	db := newTestDB(t)
	files := service.NewFileService(db.FileStore())
	auth := service.NewAuthService(db.Users(), newTestTokens(service.TokenConfig{}), files, 4, "")
	notices := service.NewNoticeService(db.Notices(), db.Users(), files)
	return notices, auth, db
}

func registerUser(t *testing.T, auth *service.AuthService, email string) *domain.User {
	t.Helper()
	user, _, err := auth.Register(context.Background(), email, "password1")
	if err != nil {
		t.Fatalf("Register %s: %v", email, err)
	}
	return user
}

func setBalance(t *testing.T, db *sqlite.DB, userID, balance int64) {
	t.Helper()
	if _, err := db.SqlDB.ExecContext(context.Background(),
		"UPDATE users SET balance = ? WHERE id = ?", balance, userID,
	); err != nil {
		t.Fatalf("set balance: %v", err)
	}
}

func sellInput(title string, price int64) service.NoticeInput {
	return service.NoticeInput{
		Category: domain.CategorySell,
		Title:    title,
		PetName:  "Barsik",
		Birthday: time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC),
		Breed:    "tabby",
		PhotoURL: "/api/files/test-photo",
		Sex:      domain.SexMale,
		Location: "Kyiv",
		Price:    &price,
		Comments: "friendly and calm",
	}
}

func TestNoticeService_Create_SellRequiresPrice(t *testing.T) {
	notices, auth, _ := newTestNoticeService(t)
	ctx := context.Background()
	owner := registerUser(t, auth, "owner@example.com")

	input := sellInput("Kitten looking for a home", 100)
	input.Price = nil
	if _, err := notices.Create(ctx, owner, input, 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for sell without price, got %v", err)
	}

	zero := int64(0)
	input.Price = &zero
	if _, err := notices.Create(ctx, owner, input, 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero price, got %v", err)
	}
}

func TestNoticeService_Create_PriceForbiddenOutsideSell(t *testing.T) {
	notices, auth, _ := newTestNoticeService(t)
	ctx := context.Background()
	owner := registerUser(t, auth, "owner@example.com")

	input := sellInput("Found a dog near the park", 100)
	input.Category = domain.CategoryLostFound
	if _, err := notices.Create(ctx, owner, input, 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for priced lost-found notice, got %v", err)
	}

	input.Price = nil
	notice, err := notices.Create(ctx, owner, input, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if notice.Price != nil {
		t.Fatal("expected nil price on lost-found notice")
	}
}

func TestNoticeService_Create_PromoDebitsBalance(t *testing.T) {
	notices, auth, db := newTestNoticeService(t)
	ctx := context.Background()
	owner := registerUser(t, auth, "owner@example.com")
	setBalance(t, db, owner.ID, 3)
	owner.Balance = 3

	before := time.Now().UTC()
	notice, err := notices.Create(ctx, owner, sellInput("Promoted kitten", 100), 3)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	want := before.AddDate(0, 0, 3)
	if notice.PromoDate.Before(want) || notice.PromoDate.After(want.Add(time.Minute)) {
		t.Fatalf("expected promo date near %v, got %v", want, notice.PromoDate)
	}

	stored, err := db.Users().GetByID(ctx, owner.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Balance != 0 {
		t.Fatalf("expected exact balance to be spent down to 0, got %d", stored.Balance)
	}
	if owner.Balance != 0 {
		t.Fatalf("expected in-memory balance 0, got %d", owner.Balance)
	}
}

func TestNoticeService_Create_InsufficientFunds(t *testing.T) {
	notices, auth, db := newTestNoticeService(t)
	ctx := context.Background()
	owner := registerUser(t, auth, "owner@example.com")
	setBalance(t, db, owner.ID, 2)
	owner.Balance = 2

	if _, err := notices.Create(ctx, owner, sellInput("Too expensive", 100), 3); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	// Nothing was written: no notice, no debit.
	var count int
	if err := db.SqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM notices").Scan(&count); err != nil {
		t.Fatalf("count notices: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no notices, got %d", count)
	}
	stored, err := db.Users().GetByID(ctx, owner.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Balance != 2 {
		t.Fatalf("expected balance untouched at 2, got %d", stored.Balance)
	}
}

func TestNoticeService_Create_NegativePromoDays(t *testing.T) {
	notices, auth, _ := newTestNoticeService(t)
	owner := registerUser(t, auth, "owner@example.com")

	if _, err := notices.Create(context.Background(), owner, sellInput("Kitten", 100), -1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNoticeService_Update_NotOwned(t *testing.T) {
	notices, auth, _ := newTestNoticeService(t)
	ctx := context.Background()
	owner := registerUser(t, auth, "owner@example.com")
	other := registerUser(t, auth, "other@example.com")

	notice, err := notices.Create(ctx, owner, sellInput("Kitten", 100), 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	title := "Hijacked"
	_, err = notices.Update(ctx, other, notice.ID, service.NoticeUpdate{Title: &title}, 0)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for somebody else's notice, got %v", err)
	}
}

func TestNoticeService_Update_PriceForbiddenOutsideSell(t *testing.T) {
	notices, auth, _ := newTestNoticeService(t)
	ctx := context.Background()
	owner := registerUser(t, auth, "owner@example.com")

	notice, err := notices.Create(ctx, owner, sellInput("Kitten", 100), 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Setting a price while switching away from sell must fail.
	category := domain.CategoryForFree
	price := int64(50)
	_, err = notices.Update(ctx, owner, notice.ID, service.NoticeUpdate{Category: &category, Price: &price}, 0)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	// Switching away without a price drops the old one.
	updated, err := notices.Update(ctx, owner, notice.ID, service.NoticeUpdate{Category: &category}, 0)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Price != nil {
		t.Fatal("expected price to be dropped on category change")
	}
}

func TestNoticeService_Update_LapsedPromoExtendsFromNow(t *testing.T) {
	notices, auth, db := newTestNoticeService(t)
	ctx := context.Background()
	owner := registerUser(t, auth, "owner@example.com")
	setBalance(t, db, owner.ID, 10)
	owner.Balance = 10

	notice, err := notices.Create(ctx, owner, sellInput("Kitten", 100), 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Simulate a promotion that expired a while ago.
	lapsed := time.Now().UTC().AddDate(0, 0, -10)
	if _, err := db.SqlDB.ExecContext(ctx,
		"UPDATE notices SET promo_date = ? WHERE id = ?", lapsed, notice.ID,
	); err != nil {
		t.Fatalf("backdate promo: %v", err)
	}

	before := time.Now().UTC()
	updated, err := notices.Update(ctx, owner, notice.ID, service.NoticeUpdate{}, 2)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	want := before.AddDate(0, 0, 2)
	if updated.PromoDate.Before(want) || updated.PromoDate.After(want.Add(time.Minute)) {
		t.Fatalf("expected promo date near %v, got %v", want, updated.PromoDate)
	}
}

func TestNoticeService_Update_ActivePromoExtendsFromExpiry(t *testing.T) {
	notices, auth, db := newTestNoticeService(t)
	ctx := context.Background()
	owner := registerUser(t, auth, "owner@example.com")
	setBalance(t, db, owner.ID, 10)
	owner.Balance = 10

	before := time.Now().UTC()
	notice, err := notices.Create(ctx, owner, sellInput("Kitten", 100), 5)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := notices.Update(ctx, owner, notice.ID, service.NoticeUpdate{}, 2)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	want := before.AddDate(0, 0, 7)
	if updated.PromoDate.Before(want) || updated.PromoDate.After(want.Add(time.Minute)) {
		t.Fatalf("expected promo date near %v, got %v", want, updated.PromoDate)
	}

	stored, err := db.Users().GetByID(ctx, owner.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Balance != 3 {
		t.Fatalf("expected balance 3 after spending 7, got %d", stored.Balance)
	}
}

func TestNoticeService_Remove(t *testing.T) {
	notices, auth, _ := newTestNoticeService(t)
	ctx := context.Background()
	owner := registerUser(t, auth, "owner@example.com")
	other := registerUser(t, auth, "other@example.com")

	notice, err := notices.Create(ctx, owner, sellInput("Kitten", 100), 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := notices.Remove(ctx, other, notice.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for somebody else's notice, got %v", err)
	}

	removed, err := notices.Remove(ctx, owner, notice.ID)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if removed.ID != notice.ID {
		t.Fatalf("expected removed notice %d, got %d", notice.ID, removed.ID)
	}

	if _, _, err := notices.Get(ctx, notice.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after removal, got %v", err)
	}
}

func TestNoticeService_SetFavorite_Idempotent(t *testing.T) {
	notices, auth, _ := newTestNoticeService(t)
	ctx := context.Background()
	owner := registerUser(t, auth, "owner@example.com")
	fan := registerUser(t, auth, "fan@example.com")

	notice, err := notices.Create(ctx, owner, sellInput("Kitten", 100), 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for range 2 {
		updated, err := notices.SetFavorite(ctx, notice.ID, fan.ID, true)
		if err != nil {
			t.Fatalf("SetFavorite add: %v", err)
		}
		if len(updated.Favorites) != 1 {
			t.Fatalf("expected exactly one favorite, got %d", len(updated.Favorites))
		}
		if !updated.FavoritedBy(fan.ID) {
			t.Fatal("expected notice to be favorited by fan")
		}
	}

	for range 2 {
		updated, err := notices.SetFavorite(ctx, notice.ID, fan.ID, false)
		if err != nil {
			t.Fatalf("SetFavorite remove: %v", err)
		}
		if updated.FavoritedBy(fan.ID) {
			t.Fatal("expected favorite to be removed")
		}
	}
}

func TestNoticeService_SetFavorite_UnknownNotice(t *testing.T) {
	notices, auth, _ := newTestNoticeService(t)
	fan := registerUser(t, auth, "fan@example.com")

	if _, err := notices.SetFavorite(context.Background(), 999, fan.ID, true); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNoticeService_Get_IncludesOwnerContact(t *testing.T) {
	notices, auth, _ := newTestNoticeService(t)
	ctx := context.Background()
	owner := registerUser(t, auth, "owner@example.com")
	phone := "+380501234567"
	if _, err := auth.UpdateProfile(ctx, owner, domain.ProfileUpdate{Phone: &phone}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	notice, err := notices.Create(ctx, owner, sellInput("Kitten", 100), 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, contact, err := notices.Get(ctx, notice.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if contact == nil {
		t.Fatal("expected owner contact")
	}
	if contact.Email != "owner@example.com" || contact.Phone != phone {
		t.Fatalf("unexpected contact %+v", contact)
	}
}

func TestNoticeService_List_TitleFilter(t *testing.T) {
	notices, auth, _ := newTestNoticeService(t)
	ctx := context.Background()
	owner := registerUser(t, auth, "owner@example.com")

	for _, title := range []string{"Fluffy kitten", "Serious dog", "KITTEN twins"} {
		if _, err := notices.Create(ctx, owner, sellInput(title, 100), 0); err != nil {
			t.Fatalf("Create %q: %v", title, err)
		}
	}

	list, err := notices.List(ctx, nil, service.ListParams{Title: "kitten"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list.TotalResults != 2 {
		t.Fatalf("expected 2 matches, got %d", list.TotalResults)
	}
}

func TestNoticeService_List_PromotedFirst(t *testing.T) {
	notices, auth, db := newTestNoticeService(t)
	ctx := context.Background()
	owner := registerUser(t, auth, "owner@example.com")
	setBalance(t, db, owner.ID, 10)
	owner.Balance = 10

	if _, err := notices.Create(ctx, owner, sellInput("Plain old", 100), 0); err != nil {
		t.Fatalf("Create: %v", err)
	}
	promoted, err := notices.Create(ctx, owner, sellInput("Promoted", 100), 3)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := notices.Create(ctx, owner, sellInput("Plain new", 100), 0); err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := notices.List(ctx, nil, service.ListParams{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(list.Results))
	}
	if list.Results[0].ID != promoted.ID {
		t.Fatalf("expected promoted notice first, got %d", list.Results[0].ID)
	}
}

func TestNoticeService_List_Pagination(t *testing.T) {
	notices, auth, _ := newTestNoticeService(t)
	ctx := context.Background()
	owner := registerUser(t, auth, "owner@example.com")

	for i := 0; i < 5; i++ {
		if _, err := notices.Create(ctx, owner, sellInput("Kitten", 100), 0); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	list, err := notices.List(ctx, nil, service.ListParams{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list.TotalResults != 5 {
		t.Fatalf("expected 5 total, got %d", list.TotalResults)
	}
	if list.TotalPages != 3 {
		t.Fatalf("expected 3 pages, got %d", list.TotalPages)
	}
	if list.Page != 2 {
		t.Fatalf("expected page 2, got %d", list.Page)
	}
	if len(list.Results) != 2 {
		t.Fatalf("expected 2 results on page 2, got %d", len(list.Results))
	}
}

func TestNoticeService_List_OwnAndFavoriteRequireViewer(t *testing.T) {
	notices, _, _ := newTestNoticeService(t)
	ctx := context.Background()

	yes := true
	if _, err := notices.List(ctx, nil, service.ListParams{Own: &yes}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for anonymous own filter, got %v", err)
	}
	if _, err := notices.List(ctx, nil, service.ListParams{Favorite: &yes}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for anonymous favorite filter, got %v", err)
	}
}

func TestNoticeService_List_OwnFilter(t *testing.T) {
	notices, auth, _ := newTestNoticeService(t)
	ctx := context.Background()
	owner := registerUser(t, auth, "owner@example.com")
	other := registerUser(t, auth, "other@example.com")

	mine, err := notices.Create(ctx, owner, sellInput("Mine", 100), 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := notices.Create(ctx, other, sellInput("Theirs", 100), 0); err != nil {
		t.Fatalf("Create: %v", err)
	}

	yes := true
	list, err := notices.List(ctx, owner, service.ListParams{Own: &yes})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list.TotalResults != 1 || list.Results[0].ID != mine.ID {
		t.Fatalf("expected only own notice, got %+v", list.Results)
	}

	no := false
	list, err = notices.List(ctx, owner, service.ListParams{Own: &no})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list.TotalResults != 1 || list.Results[0].ID == mine.ID {
		t.Fatalf("expected only other people's notices, got %+v", list.Results)
	}
}

func TestNoticeService_List_FavoriteFilter(t *testing.T) {
	notices, auth, _ := newTestNoticeService(t)
	ctx := context.Background()
	owner := registerUser(t, auth, "owner@example.com")
	fan := registerUser(t, auth, "fan@example.com")

	liked, err := notices.Create(ctx, owner, sellInput("Liked", 100), 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := notices.Create(ctx, owner, sellInput("Ignored", 100), 0); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := notices.SetFavorite(ctx, liked.ID, fan.ID, true); err != nil {
		t.Fatalf("SetFavorite: %v", err)
	}

	yes := true
	list, err := notices.List(ctx, fan, service.ListParams{Favorite: &yes})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list.TotalResults != 1 || list.Results[0].ID != liked.ID {
		t.Fatalf("expected only the favorited notice, got %+v", list.Results)
	}
	if !list.Results[0].FavoritedBy(fan.ID) {
		t.Fatal("expected favorites to be loaded on listed notices")
	}
}

func TestNoticeService_List_AgeBucketsUnion(t *testing.T) {
	notices, auth, _ := newTestNoticeService(t)
	ctx := context.Background()
	owner := registerUser(t, auth, "owner@example.com")
	now := time.Now().UTC()

	mkNotice := func(title string, birthday time.Time) *domain.Notice {
		input := sellInput(title, 100)
		input.Birthday = birthday
		notice, err := notices.Create(ctx, owner, input, 0)
		if err != nil {
			t.Fatalf("Create %q: %v", title, err)
		}
		return notice
	}

	puppy := mkNotice("Puppy", now.AddDate(0, -6, 0))  // under a year
	mkNotice("Junior", now.AddDate(-1, -6, 0))         // one to two
	grown := mkNotice("Grown", now.AddDate(-2, -6, 0)) // two to three

	list, err := notices.List(ctx, nil, service.ListParams{Age: []int{0, 2}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list.TotalResults != 2 {
		t.Fatalf("expected 2 matches, got %d", list.TotalResults)
	}
	ids := map[int64]bool{}
	for _, n := range list.Results {
		ids[n.ID] = true
	}
	if !ids[puppy.ID] || !ids[grown.ID] {
		t.Fatalf("expected puppy and grown notices, got %v", ids)
	}
}

func TestNoticeService_List_InvalidFilters(t *testing.T) {
	notices, _, _ := newTestNoticeService(t)
	ctx := context.Background()

	if _, err := notices.List(ctx, nil, service.ListParams{Category: "adoption"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown category, got %v", err)
	}
	if _, err := notices.List(ctx, nil, service.ListParams{Sex: "other"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown sex, got %v", err)
	}
	if _, err := notices.List(ctx, nil, service.ListParams{Age: []int{-1}}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative age, got %v", err)
	}
}

func TestAgeRanges(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	ranges, err := service.AgeRanges(now, []int{1})
	if err != nil {
		t.Fatalf("AgeRanges: %v", err)
	}
	if len(ranges) != 1 {
		t.Fatalf("expected 1 range, got %d", len(ranges))
	}
	if !ranges[0].From.Equal(now.AddDate(-2, 0, 0)) {
		t.Fatalf("unexpected From %v", ranges[0].From)
	}
	if !ranges[0].Until.Equal(now.AddDate(-1, 0, 0)) {
		t.Fatalf("unexpected Until %v", ranges[0].Until)
	}

	if _, err := service.AgeRanges(now, []int{-1}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
