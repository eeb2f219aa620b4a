package handler

import (
	"net/http"
	"strconv"

	"github.com/purrfectmatch/api/internal/service"
)

// PetHandler handles a user's own pets.
type PetHandler struct {
	pets  *service.PetService
	files *service.FileService
}

// NewPetHandler creates a new PetHandler.
func NewPetHandler(pets *service.PetService, files *service.FileService) *PetHandler {
	return &PetHandler{pets: pets, files: files}
}

// HandleList returns one page of the caller's pets.
// GET /api/pets (bearer)
func (h *PetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	owner := UserFromContext(r.Context())
	query := r.URL.Query()

	var page, limit int
	var err error
	if v := query.Get("page"); v != "" {
		if page, err = parsePositiveInt(v, "page"); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	if v := query.Get("limit"); v != "" {
		if limit, err = parsePositiveInt(v, "limit"); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	list, err := h.pets.List(r.Context(), owner.ID, page, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, PetListDTO{
		TotalResults: list.TotalResults,
		Page:         list.Page,
		TotalPages:   list.TotalPages,
		Results:      toPetDTOs(list.Results),
	})
}

// HandleCreate adds a pet with a required photo.
// POST /api/pets (bearer, multipart with photo file)
func (h *PetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	owner := UserFromContext(r.Context())

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form.")
		return
	}

	input := service.PetInput{
		PetName:  r.FormValue("name"),
		Breed:    r.FormValue("breed"),
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

	pet, err := h.pets.Create(r.Context(), owner.ID, input)
	if err != nil {
		h.files.DeleteByURL(r.Context(), photoURL)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPetDTO(pet))
}

// HandleDelete removes an owned pet.
// DELETE /api/pets/{id} (bearer)
func (h *PetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	owner := UserFromContext(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid pet id.")
		return
	}

	pet, err := h.pets.Remove(r.Context(), owner.ID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPetDTO(pet))
}
