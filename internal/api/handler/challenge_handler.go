package handler

import (
	"context"
	"net/http"
	"strconv"

	"dactylo_api/internal/app/service"
	"dactylo_api/internal/common"

	"github.com/go-chi/chi/v5"
)

// WeeklyRunner forces one run of the weekly counter job.
type WeeklyRunner interface {
	RunOnce(ctx context.Context) (bool, error)
}

type ChallengeHandler struct {
	challengeService *service.ChallengeService
	weekly           WeeklyRunner
	auth             Authenticate
	adminOnly        func(http.Handler) http.Handler
}

func NewChallengeHandler(cs *service.ChallengeService, weekly WeeklyRunner, auth Authenticate, adminOnly func(http.Handler) http.Handler) *ChallengeHandler {
	return &ChallengeHandler{challengeService: cs, weekly: weekly, auth: auth, adminOnly: adminOnly}
}

func (h *ChallengeHandler) RegisterRoutes(r chi.Router) {
	r.Route("/defis", func(r chi.Router) {
		r.Post("/", h.createChallenge)
		r.Get("/", h.listChallenges)
		r.Get("/{id_defi}", h.getChallenge)
		r.Delete("/{id_defi}", h.deleteChallenge)
		r.Get("/{id_defi}/classement", h.leaderboard)
	})

	r.Get("/defi_semaine", h.weeklyCounter)
	r.With(h.auth, h.adminOnly).Post("/defi_semaine/avancer", h.advanceWeeklyCounter)

	r.Route("/reussites_defi", func(r chi.Router) {
		r.Get("/", h.listBestCompletions)
		r.Get("/{pseudo_utilisateur}", h.listUserCompletions)
		r.With(h.auth).Post("/", h.recordCompletion)
		r.With(h.auth).Delete("/", h.deleteCompletion)
	})
}

func (h *ChallengeHandler) createChallenge(w http.ResponseWriter, r *http.Request) {
	var req service.CreateChallengeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	challenge, err := h.challengeService.Create(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, challenge)
}

func (h *ChallengeHandler) listChallenges(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	challenges, err := h.challengeService.List(r.Context(), page)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, challenges)
}

func (h *ChallengeHandler) getChallenge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id_defi")
	if !ok {
		return
	}
	challenge, err := h.challengeService.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, challenge)
}

func (h *ChallengeHandler) deleteChallenge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id_defi")
	if !ok {
		return
	}
	msg, err := h.challengeService.Delete(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, msg)
}

func (h *ChallengeHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id_defi")
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			common.RespondWithError(w, http.StatusBadRequest, "paramètre 'limit' invalide")
			return
		}
		limit = v
	}
	entries, err := h.challengeService.Leaderboard(r.Context(), id, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}

func (h *ChallengeHandler) weeklyCounter(w http.ResponseWriter, r *http.Request) {
	counter, err := h.challengeService.WeeklyCounter(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, counter)
}

func (h *ChallengeHandler) advanceWeeklyCounter(w http.ResponseWriter, r *http.Request) {
	ran, err := h.weekly.RunOnce(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !ran {
		common.RespondWithError(w, http.StatusConflict, "le compteur est déjà en cours de mise à jour")
		return
	}
	h.weeklyCounter(w, r)
}

func (h *ChallengeHandler) recordCompletion(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	challengeID, ok := queryInt64(w, r, "id_defi")
	if !ok {
		return
	}
	temps, ok := queryFloat(w, r, "temps_reussite")
	if !ok {
		return
	}

	outcome, err := h.challengeService.RecordCompletion(r.Context(), user, service.RecordCompletionRequest{
		ChallengeID: challengeID,
		Pseudo:      r.URL.Query().Get("pseudo_utilisateur"),
		Temps:       temps,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, outcome)
}

func (h *ChallengeHandler) deleteCompletion(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	challengeID, ok := queryInt64(w, r, "id_defi")
	if !ok {
		return
	}
	pseudo := r.URL.Query().Get("pseudo_utilisateur")
	if pseudo == "" {
		pseudo = user.Pseudo
	}
	msg, err := h.challengeService.DeleteCompletion(r.Context(), user, pseudo, challengeID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, msg)
}

func (h *ChallengeHandler) listBestCompletions(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	completions, err := h.challengeService.ListBestCompletions(r.Context(), page)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, completions)
}

func (h *ChallengeHandler) listUserCompletions(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	completions, err := h.challengeService.ListCompletionsByUser(r.Context(), chi.URLParam(r, "pseudo_utilisateur"), page)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, completions)
}
