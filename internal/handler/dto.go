package handler

import (
	"time"

	"github.com/purrfectmatch/api/internal/domain"
	"github.com/purrfectmatch/api/internal/service"
)

// birthdayFormat is the wire format for pet birthdays.
const birthdayFormat = "02.01.2006"

// UserDTO is the brief JSON representation of a user, returned by the
// register/login/refresh endpoints.
type UserDTO struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
	}
}

// ProfileDTO is the detailed JSON representation of the current user.
// Tokens, hashes, and internal ids stay out.
type ProfileDTO struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Birthday  string `json:"birthday"`
	City      string `json:"city"`
	Phone     string `json:"phone"`
	AvatarURL string `json:"avatarUrl"`
	Balance   int64  `json:"balance"`
	Verified  bool   `json:"verified"`
}

func toProfileDTO(u *domain.User) ProfileDTO {
	return ProfileDTO{
		Name:      u.Name,
		Email:     u.Email,
		Birthday:  u.Birthday,
		City:      u.City,
		Phone:     u.Phone,
		AvatarURL: u.AvatarURL,
		Balance:   u.Balance,
		Verified:  u.Verified,
	}
}

// NoticeDTO is the JSON representation of a notice. The raw owner id and
// favorites set never leave the API; viewers get the derived favorite and
// own flags instead.
type NoticeDTO struct {
	ID        int64  `json:"id"`
	Category  string `json:"category"`
	Title     string `json:"title"`
	Name      string `json:"name"`
	Birthday  string `json:"birthday"`
	Breed     string `json:"breed"`
	PhotoURL  string `json:"photoUrl"`
	Sex       string `json:"sex"`
	Location  string `json:"location"`
	Price     *int64 `json:"price,omitempty"`
	Comments  string `json:"comments,omitempty"`
	PromoDate string `json:"promoDate"`
	Favorite  bool   `json:"favorite"`
	Own       bool   `json:"own"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toNoticeDTO(n *domain.Notice, viewer *domain.User) NoticeDTO {
	dto := NoticeDTO{
		ID:        n.ID,
		Category:  n.Category,
		Title:     n.Title,
		Name:      n.PetName,
		Birthday:  n.Birthday.Format(birthdayFormat),
		Breed:     n.Breed,
		PhotoURL:  n.PhotoURL,
		Sex:       n.Sex,
		Location:  n.Location,
		Price:     n.Price,
		Comments:  n.Comments,
		PromoDate: n.PromoDate.Format(time.RFC3339),
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
		UpdatedAt: n.UpdatedAt.Format(time.RFC3339),
	}
	if viewer != nil {
		dto.Favorite = n.FavoritedBy(viewer.ID)
		dto.Own = n.OwnerID == viewer.ID
	}
	return dto
}

func toNoticeDTOs(notices []domain.Notice, viewer *domain.User) []NoticeDTO {
	dtos := make([]NoticeDTO, len(notices))
	for i := range notices {
		dtos[i] = toNoticeDTO(&notices[i], viewer)
	}
	return dtos
}

// OwnerContactDTO is the owner contact info attached to a notice detail.
type OwnerContactDTO struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// NoticeDetailDTO is the detail representation: the notice plus owner
// contact info.
type NoticeDetailDTO struct {
	NoticeDTO
	Owner *OwnerContactDTO `json:"owner,omitempty"`
}

func toNoticeDetailDTO(n *domain.Notice, contact *service.OwnerContact, viewer *domain.User) NoticeDetailDTO {
	dto := NoticeDetailDTO{NoticeDTO: toNoticeDTO(n, viewer)}
	if contact != nil {
		dto.Owner = &OwnerContactDTO{Email: contact.Email, Phone: contact.Phone}
	}
	return dto
}

// NoticeListDTO is one page of listing results.
type NoticeListDTO struct {
	TotalResults int         `json:"totalResults"`
	Page         int         `json:"page"`
	TotalPages   int         `json:"totalPages"`
	Results      []NoticeDTO `json:"results"`
}

// PetDTO is the JSON representation of a pet.
type PetDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Birthday  string `json:"birthday"`
	Breed     string `json:"breed"`
	PhotoURL  string `json:"photoUrl"`
	Comments  string `json:"comments,omitempty"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toPetDTO(p *domain.Pet) PetDTO {
	return PetDTO{
		ID:        p.ID,
		Name:      p.PetName,
		Birthday:  p.Birthday.Format(birthdayFormat),
		Breed:     p.Breed,
		PhotoURL:  p.PhotoURL,
		Comments:  p.Comments,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}

func toPetDTOs(pets []domain.Pet) []PetDTO {
	dtos := make([]PetDTO, len(pets))
	for i := range pets {
		dtos[i] = toPetDTO(&pets[i])
	}
	return dtos
}

// PetListDTO is one page of a user's pets.
type PetListDTO struct {
	TotalResults int      `json:"totalResults"`
	Page         int      `json:"page"`
	TotalPages   int      `json:"totalPages"`
	Results      []PetDTO `json:"results"`
}
