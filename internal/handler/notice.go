package handler

import (
	"net/http"
	"strconv"

	"github.com/purrfectmatch/api/internal/service"
)

// NoticeHandler handles marketplace notice HTTP requests.
type NoticeHandler struct {
	notices *service.NoticeService
	files   *service.FileService
}

// NewNoticeHandler creates a new NoticeHandler.
func NewNoticeHandler(notices *service.NoticeService, files *service.FileService) *NoticeHandler {
	return &NoticeHandler{notices: notices, files: files}
}

// HandleList runs a filtered, paginated listing query.
// GET /api/notices (optional bearer)
func (h *NoticeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewer := UserFromContext(r.Context())
	query := r.URL.Query()

	params := service.ListParams{
		Title:    query.Get("title"),
		Category: query.Get("category"),
		Sex:      query.Get("sex"),
		Location: query.Get("location"),
	}

	var err error
	if v := query.Get("page"); v != "" {
		if params.Page, err = parsePositiveInt(v, "page"); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	if v := query.Get("limit"); v != "" {
		if params.Limit, err = parsePositiveInt(v, "limit"); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	if v := query.Get("favorite"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "favorite must be a boolean.")
			return
		}
		params.Favorite = &b
	}
	if v := query.Get("own"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "own must be a boolean.")
			return
		}
		params.Own = &b
	}
	ages := query["age"]
	if bracketed := query["age[]"]; len(bracketed) > 0 {
		ages = append(ages, bracketed...)
	}
	for _, v := range ages {
		age, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "age must be a whole number of years.")
			return
		}
		params.Age = append(params.Age, age)
	}

	list, err := h.notices.List(r.Context(), viewer, params)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, NoticeListDTO{
		TotalResults: list.TotalResults,
		Page:         list.Page,
		TotalPages:   list.TotalPages,
		Results:      toNoticeDTOs(list.Results, viewer),
	})
}

// HandleGet returns one notice with its owner's contact info.
// GET /api/notices/{id} (optional bearer)
func (h *NoticeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	viewer := UserFromContext(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid notice id.")
		return
	}

	notice, contact, err := h.notices.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toNoticeDetailDTO(notice, contact, viewer))
}

// HandleCreate posts a new notice, optionally buying promotion days.
// POST /api/notices (bearer, multipart with photo file)
func (h *NoticeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	owner := UserFromContext(r.Context())

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form.")
		return
	}

	input := service.NoticeInput{
		Category: r.FormValue("category"),
		Title:    r.FormValue("title"),
		PetName:  r.FormValue("name"),
		Breed:    r.FormValue("breed"),
		Sex:      r.FormValue("sex"),
		Location: r.FormValue("location"),
		Comments: r.FormValue("comments"),
	}

	if v := r.FormValue("birthday"); v != "" {
		birthday, err := parseBirthday(v)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		input.Birthday = birthday
	}
	if v := r.FormValue("price"); v != "" {
		price, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "price must be a whole number.")
			return
		}
		input.Price = &price
	}

	promoDays := 0
	if v := r.FormValue("promo"); v != "" {
		var err error
		if promoDays, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "promo must be a whole number of days.")
			return
		}
	}

	data, contentType, ok, err := formFile(r, "photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid photo upload.")
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "Pet photo is required.")
		return
	}
	photoURL, err := h.files.Upload(r.Context(), contentType, data)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	input.PhotoURL = photoURL

	notice, err := h.notices.Create(r.Context(), owner, input, promoDays)
	if err != nil {
		// The uploaded photo never got attached to anything.
		h.files.DeleteByURL(r.Context(), photoURL)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toNoticeDTO(notice, owner))
}

// HandleUpdate applies a partial update to an owned notice.
// PATCH /api/notices/{id} (bearer, multipart, optional photo and promo)
func (h *NoticeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	owner := UserFromContext(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid notice id.")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form.")
		return
	}

	update := service.NoticeUpdate{
		Category: formValue(r, "category"),
		Title:    formValue(r, "title"),
		PetName:  formValue(r, "name"),
		Breed:    formValue(r, "breed"),
		Sex:      formValue(r, "sex"),
		Location: formValue(r, "location"),
		Comments: formValue(r, "comments"),
	}

	if v := formValue(r, "birthday"); v != nil {
		birthday, err := parseBirthday(*v)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		update.Birthday = &birthday
	}
	if v := formValue(r, "price"); v != nil {
		price, err := strconv.ParseInt(*v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "price must be a whole number.")
			return
		}
		update.Price = &price
	}

	promoDays := 0
	if v := formValue(r, "promo"); v != nil {
		if promoDays, err = strconv.Atoi(*v); err != nil {
			writeError(w, http.StatusBadRequest, "promo must be a whole number of days.")
			return
		}
	}

	data, contentType, ok, err := formFile(r, "photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid photo upload.")
		return
	}
	var newPhotoURL string
	if ok {
		if newPhotoURL, err = h.files.Upload(r.Context(), contentType, data); err != nil {
			writeDomainError(w, err)
			return
		}
		update.PhotoURL = &newPhotoURL
	}

	notice, err := h.notices.Update(r.Context(), owner, id, update, promoDays)
	if err != nil {
		if newPhotoURL != "" {
			h.files.DeleteByURL(r.Context(), newPhotoURL)
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toNoticeDTO(notice, owner))
}

// HandleDelete removes an owned notice.
// DELETE /api/notices/{id} (bearer)
func (h *NoticeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	owner := UserFromContext(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid notice id.")
		return
	}

	notice, err := h.notices.Remove(r.Context(), owner, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toNoticeDTO(notice, owner))
}

// HandleAddFavorite adds the notice to the caller's favorites.
// POST /api/notices/{id}/favorite (bearer)
func (h *NoticeHandler) HandleAddFavorite(w http.ResponseWriter, r *http.Request) {
	h.setFavorite(w, r, true)
}

// HandleRemoveFavorite removes the notice from the caller's favorites.
// DELETE /api/notices/{id}/favorite (bearer)
func (h *NoticeHandler) HandleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	h.setFavorite(w, r, false)
}

// HandleUpdateFavorite sets the favorite flag from the request body.
// PATCH /api/notices/{id}/favorite {"favorite":true} (bearer)
func (h *NoticeHandler) HandleUpdateFavorite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Favorite *bool `json:"favorite"`
	}
	if err := readJSON(r, &req); err != nil || req.Favorite == nil {
		writeError(w, http.StatusBadRequest, "favorite is required.")
		return
	}
	h.setFavorite(w, r, *req.Favorite)
}

func (h *NoticeHandler) setFavorite(w http.ResponseWriter, r *http.Request, favorite bool) {
	user := UserFromContext(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid notice id.")
		return
	}

	notice, err := h.notices.SetFavorite(r.Context(), id, user.ID, favorite)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toNoticeDTO(notice, user))
}
