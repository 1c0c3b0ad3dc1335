package handler

import (
	"net/http"

	"dactylo_api/internal/app/service"
	"dactylo_api/internal/common"

	"github.com/go-chi/chi/v5"
)

type BadgeHandler struct {
	badgeService *service.BadgeService
	auth         Authenticate
}

func NewBadgeHandler(bs *service.BadgeService, auth Authenticate) *BadgeHandler {
	return &BadgeHandler{badgeService: bs, auth: auth}
}

func (h *BadgeHandler) RegisterRoutes(r chi.Router) {
	r.Route("/badges", func(r chi.Router) {
		r.Post("/", h.createBadge)
		r.Get("/", h.listBadges)
		r.Get("/utilisateur/{pseudo}", h.listUserBadges)
		r.Get("/{id_badge}", h.getBadge)
		r.Delete("/{id_badge}", h.deleteBadge)

		r.Group(func(authed chi.Router) {
			authed.Use(h.auth)
			authed.Post("/{id_badge}/utilisateurs/{pseudo}", h.grantBadge)
			authed.Delete("/{id_badge}/utilisateurs/{pseudo}", h.revokeBadge)
		})
	})
}

func (h *BadgeHandler) createBadge(w http.ResponseWriter, r *http.Request) {
	var req service.CreateBadgeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	badge, err := h.badgeService.Create(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, badge)
}

func (h *BadgeHandler) listBadges(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	badges, err := h.badgeService.List(r.Context(), page)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, badges)
}

func (h *BadgeHandler) getBadge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id_badge")
	if !ok {
		return
	}
	badge, err := h.badgeService.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, badge)
}

func (h *BadgeHandler) deleteBadge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id_badge")
	if !ok {
		return
	}
	msg, err := h.badgeService.Delete(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, msg)
}

func (h *BadgeHandler) grantBadge(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathInt64(w, r, "id_badge")
	if !ok {
		return
	}
	msg, err := h.badgeService.Grant(r.Context(), user, id, chi.URLParam(r, "pseudo"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, msg)
}

func (h *BadgeHandler) revokeBadge(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathInt64(w, r, "id_badge")
	if !ok {
		return
	}
	msg, err := h.badgeService.Revoke(r.Context(), user, id, chi.URLParam(r, "pseudo"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, msg)
}

func (h *BadgeHandler) listUserBadges(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	badges, err := h.badgeService.ListByUser(r.Context(), chi.URLParam(r, "pseudo"), page)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, badges)
}
