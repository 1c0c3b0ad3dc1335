package handler

import (
	"net/http"

	"dactylo_api/internal/app/service"
	"dactylo_api/internal/common"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	userService     *service.UserService
	authService     *service.AuthService
	badgeService    *service.BadgeService
	exerciseService *service.ExerciseService
	auth            Authenticate
}

func NewUserHandler(
	us *service.UserService,
	as *service.AuthService,
	bs *service.BadgeService,
	es *service.ExerciseService,
	auth Authenticate,
) *UserHandler {
	return &UserHandler{userService: us, authService: as, badgeService: bs, exerciseService: es, auth: auth}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Route("/utilisateurs", func(r chi.Router) {
		r.Post("/", h.createUser)
		r.Get("/", h.listUsers)

		r.Group(func(authed chi.Router) {
			authed.Use(h.auth)
			authed.Get("/moi", h.me)
			authed.Put("/moi/mot_de_passe", h.changePassword)
			authed.Get("/moi/badge", h.myBadges)
			authed.Get("/moi/exercices", h.myExercises)
			authed.Put("/{pseudo}/cptDefi", h.setChallengeCounter)
			authed.Delete("/{pseudo}", h.deleteUser)
		})
	})

	r.Get("/utilisateur/{pseudo}", h.getPublic)
	r.With(h.auth).Get("/utilisateur_full/{pseudo}", h.getProfile)
}

func (h *UserHandler) createUser(w http.ResponseWriter, r *http.Request) {
	var req service.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	profile, err := h.userService.Create(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	users, err := h.userService.List(r.Context(), page)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, users)
}

func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user.Profile())
}

func (h *UserHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.authService.ChangePassword(r.Context(), user, req); err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.MessageResponse{Message: "Mot de passe mis à jour avec succès."})
}

func (h *UserHandler) myBadges(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	badges, err := h.badgeService.ListByUser(r.Context(), user.Pseudo, page)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, badges)
}

func (h *UserHandler) myExercises(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	exercises, err := h.exerciseService.ListCompletedByUser(r.Context(), user.Pseudo, page)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, exercises)
}

type challengeCounterRequest struct {
	CptDefi *int `json:"cptDefi"`
}

func (h *UserHandler) setChallengeCounter(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req challengeCounterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CptDefi == nil {
		common.RespondWithError(w, http.StatusBadRequest, "cptDefi est requis")
		return
	}
	profile, err := h.userService.SetChallengeCounter(r.Context(), user, chi.URLParam(r, "pseudo"), *req.CptDefi)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	msg, err := h.userService.Delete(r.Context(), user, chi.URLParam(r, "pseudo"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, msg)
}

func (h *UserHandler) getPublic(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetPublic(r.Context(), chi.URLParam(r, "pseudo"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.userService.GetProfile(r.Context(), chi.URLParam(r, "pseudo"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, profile)
}
