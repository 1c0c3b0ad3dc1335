package handler

import (
	"net/http"

	"dactylo_api/internal/app/service"
	"dactylo_api/internal/common"

	"github.com/go-chi/chi/v5"
)

type ExerciseHandler struct {
	exerciseService *service.ExerciseService
	auth            Authenticate
}

func NewExerciseHandler(es *service.ExerciseService, auth Authenticate) *ExerciseHandler {
	return &ExerciseHandler{exerciseService: es, auth: auth}
}

func (h *ExerciseHandler) RegisterRoutes(r chi.Router) {
	r.Route("/exercices", func(r chi.Router) {
		r.Post("/", h.createExercise)
		r.Get("/", h.listExercises)
		r.Get("/{id_exercice}", h.getExercise)
		r.Delete("/{id_exercice}", h.deleteExercise)
		r.With(h.auth).Post("/{id_exercice}/reussite", h.markCompleted)
	})
}

func (h *ExerciseHandler) createExercise(w http.ResponseWriter, r *http.Request) {
	var req service.CreateExerciseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	exercise, err := h.exerciseService.Create(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, exercise)
}

func (h *ExerciseHandler) listExercises(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	exercises, err := h.exerciseService.List(r.Context(), page)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, exercises)
}

func (h *ExerciseHandler) getExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id_exercice")
	if !ok {
		return
	}
	exercise, err := h.exerciseService.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, exercise)
}

func (h *ExerciseHandler) deleteExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id_exercice")
	if !ok {
		return
	}
	msg, err := h.exerciseService.Delete(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, msg)
}

func (h *ExerciseHandler) markCompleted(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathInt64(w, r, "id_exercice")
	if !ok {
		return
	}
	msg, err := h.exerciseService.MarkCompleted(r.Context(), user, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, msg)
}
