package handler

import (
	"net/http"

	"github.com/purrfectmatch/api/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(
	mux *http.ServeMux,
	auth *service.AuthService,
	verification *service.VerificationService,
	notices *service.NoticeService,
	pets *service.PetService,
	files *service.FileService,
	frontendURL string,
) {
	authHandler := NewAuthHandler(auth, verification, files, frontendURL)
	noticeHandler := NewNoticeHandler(notices, files)
	petHandler := NewPetHandler(pets, files)
	fileHandler := NewFileHandler(files)

	mux.HandleFunc("GET /healthz", HandleHealthz)

	// Users and sessions.
	mux.HandleFunc("POST /api/users/register", authHandler.HandleRegister)
	mux.HandleFunc("POST /api/users/login", authHandler.HandleLogin)
	mux.HandleFunc("POST /api/users/refresh", authHandler.HandleRefresh)
	mux.Handle("POST /api/users/logout", RequireAuth(auth, authHandler.HandleLogout))
	mux.HandleFunc("POST /api/users/request-verification", authHandler.HandleRequestVerification)
	mux.HandleFunc("POST /api/users/verify", authHandler.HandleVerify)
	mux.HandleFunc("GET /api/users/verify", authHandler.HandleVerifyRedirect)
	mux.Handle("GET /api/users/current", RequireAuth(auth, authHandler.HandleGetCurrent))
	mux.Handle("PATCH /api/users/current", RequireAuth(auth, authHandler.HandleUpdateCurrent))
	mux.Handle("PATCH /api/users/current/avatar", RequireAuth(auth, authHandler.HandleUpdateAvatar))

	// Notices. Listing and detail work anonymously but shape the response
	// for the viewer when a valid token is present.
	mux.Handle("GET /api/notices", OptionalAuth(auth, noticeHandler.HandleList))
	mux.Handle("GET /api/notices/{id}", OptionalAuth(auth, noticeHandler.HandleGet))
	mux.Handle("POST /api/notices", RequireAuth(auth, noticeHandler.HandleCreate))
	mux.Handle("PATCH /api/notices/{id}", RequireAuth(auth, noticeHandler.HandleUpdate))
	mux.Handle("DELETE /api/notices/{id}", RequireAuth(auth, noticeHandler.HandleDelete))
	mux.Handle("POST /api/notices/{id}/favorite", RequireAuth(auth, noticeHandler.HandleAddFavorite))
	mux.Handle("PATCH /api/notices/{id}/favorite", RequireAuth(auth, noticeHandler.HandleUpdateFavorite))
	mux.Handle("DELETE /api/notices/{id}/favorite", RequireAuth(auth, noticeHandler.HandleRemoveFavorite))

	// Pets.
	mux.Handle("GET /api/pets", RequireAuth(auth, petHandler.HandleList))
	mux.Handle("POST /api/pets", RequireAuth(auth, petHandler.HandleCreate))
	mux.Handle("DELETE /api/pets/{id}", RequireAuth(auth, petHandler.HandleDelete))

	// Stored photos and avatars.
	mux.HandleFunc("GET /api/files/{key}", fileHandler.HandleServe)
}
