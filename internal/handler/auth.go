package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/purrfectmatch/api/internal/domain"
	"github.com/purrfectmatch/api/internal/service"
)

// AuthHandler handles authentication and profile HTTP requests.
type AuthHandler struct {
	auth         *service.AuthService
	verification *service.VerificationService
	files        *service.FileService
	frontendURL  string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, verification *service.VerificationService, files *service.FileService, frontendURL string) *AuthHandler {
	return &AuthHandler{auth: auth, verification: verification, files: files, frontendURL: frontendURL}
}

// HandleRegister creates an account and logs it in.
// POST /api/users/register {"email":"...","password":"..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, pair, err := h.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"accessToken":  pair.Access,
		"refreshToken": pair.Refresh,
		"user":         toUserDTO(user),
	})
}

// HandleLogin verifies credentials and rotates the token pair.
// POST /api/users/login {"email":"...","password":"..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, pair, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			// One message for unknown email and wrong password.
			writeError(w, http.StatusUnauthorized, "Email or password is wrong.")
			return
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken":  pair.Access,
		"refreshToken": pair.Refresh,
		"user":         toUserDTO(user),
	})
}

// HandleRefresh exchanges a refresh token for a new pair.
// POST /api/users/refresh {"refreshToken":"..."}
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, pair, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken":  pair.Access,
		"refreshToken": pair.Refresh,
		"user":         toUserDTO(user),
	})
}

// HandleLogout revokes the stored token pair.
// POST /api/users/logout (bearer)
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if err := h.auth.Logout(r.Context(), user.ID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRequestVerification sends a fresh one-time code by email.
// POST /api/users/request-verification {"email":"...","lang":"en"}
func (h *AuthHandler) HandleRequestVerification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Lang  string `json:"lang"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	token, err := h.verification.Request(r.Context(), req.Email, req.Lang)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"verificationToken": token})
}

// HandleVerify checks a one-time code presented by an API client.
// POST /api/users/verify {"verificationToken":"...","otp":"123456"}
func (h *AuthHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VerificationToken string `json:"verificationToken"`
		OTP               string `json:"otp"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if err := h.verification.Verify(r.Context(), req.VerificationToken, req.OTP); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"verified": true})
}

// HandleVerifyRedirect handles the email-link click. The outcome, good or
// bad, becomes a human-readable message on the frontend redirect.
// GET /api/users/verify?verificationToken=...&otp=...
func (h *AuthHandler) HandleVerifyRedirect(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	err := h.verification.Verify(r.Context(), query.Get("verificationToken"), query.Get("otp"))

	message := "Email verified successfully."
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			message = err.Error()
		} else {
			slog.Error("verify email", "error", err)
			message = "Verification failed. Please try again."
		}
	}

	http.Redirect(w, r, h.frontendURL+"?message="+url.QueryEscape(message), http.StatusFound)
}

// HandleGetCurrent returns the authenticated user's profile.
// GET /api/users/current (bearer)
func (h *AuthHandler) HandleGetCurrent(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, toProfileDTO(user))
}

// HandleUpdateCurrent applies a partial profile update.
// PATCH /api/users/current (bearer, multipart with optional avatar file)
func (h *AuthHandler) HandleUpdateCurrent(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form.")
		return
	}

	update := domain.ProfileUpdate{
		Name:     formValue(r, "name"),
		Email:    formValue(r, "email"),
		Birthday: formValue(r, "birthday"),
		City:     formValue(r, "city"),
		Phone:    formValue(r, "phone"),
	}

	data, contentType, ok, err := formFile(r, "avatar")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid avatar upload.")
		return
	}
	if ok {
		avatarURL, err := h.files.Upload(r.Context(), contentType, data)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		update.AvatarURL = &avatarURL
	}

	updated, err := h.auth.UpdateProfile(r.Context(), user, update)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProfileDTO(updated))
}

// HandleUpdateAvatar replaces the avatar only.
// PATCH /api/users/current/avatar (bearer, multipart avatar file)
func (h *AuthHandler) HandleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form.")
		return
	}

	data, contentType, ok, err := formFile(r, "avatar")
	if err != nil || !ok {
		writeError(w, http.StatusBadRequest, "Avatar is required.")
		return
	}

	avatarURL, err := h.files.Upload(r.Context(), contentType, data)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	updated, err := h.auth.UpdateAvatar(r.Context(), user, avatarURL)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"avatarUrl": updated.AvatarURL})
}
