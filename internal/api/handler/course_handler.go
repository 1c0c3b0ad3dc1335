package handler

import (
	"net/http"

	"dactylo_api/internal/app/service"
	"dactylo_api/internal/common"

	"github.com/go-chi/chi/v5"
)

type CourseHandler struct {
	courseService *service.CourseService
}

func NewCourseHandler(cs *service.CourseService) *CourseHandler {
	return &CourseHandler{courseService: cs}
}

func (h *CourseHandler) RegisterRoutes(r chi.Router) {
	r.Route("/cours", func(r chi.Router) {
		r.Post("/", h.createCourse)
		r.Get("/", h.listCourses)
		r.Get("/slug/{slug}", h.getCourseBySlug)
		r.Get("/{id_cours}", h.getCourse)
		r.Delete("/{id_cours}", h.deleteCourse)
	})

	r.Route("/sous_cours", func(r chi.Router) {
		r.Post("/", h.createSubCourse)
		r.Get("/{id_cours_parent}", h.listSubCourses)
		r.Get("/{id_cours_parent}/{id_sous_cours}", h.getSubCourse)
		r.Delete("/{id_cours_parent}/{id_sous_cours}", h.deleteSubCourse)
	})
}

func (h *CourseHandler) createCourse(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCourseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	course, err := h.courseService.CreateCourse(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) listCourses(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	courses, err := h.courseService.ListCourses(r.Context(), page)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, courses)
}

func (h *CourseHandler) getCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id_cours")
	if !ok {
		return
	}
	course, err := h.courseService.GetCourse(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) getCourseBySlug(w http.ResponseWriter, r *http.Request) {
	course, err := h.courseService.GetCourseBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) deleteCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id_cours")
	if !ok {
		return
	}
	msg, err := h.courseService.DeleteCourse(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, msg)
}

func (h *CourseHandler) createSubCourse(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSubCourseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sub, err := h.courseService.CreateSubCourse(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, sub)
}

func (h *CourseHandler) listSubCourses(w http.ResponseWriter, r *http.Request) {
	parentID, ok := pathInt64(w, r, "id_cours_parent")
	if !ok {
		return
	}
	subs, err := h.courseService.ListSubCourses(r.Context(), parentID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, subs)
}

func (h *CourseHandler) getSubCourse(w http.ResponseWriter, r *http.Request) {
	parentID, ok := pathInt64(w, r, "id_cours_parent")
	if !ok {
		return
	}
	id, ok := pathInt64(w, r, "id_sous_cours")
	if !ok {
		return
	}
	sub, err := h.courseService.GetSubCourse(r.Context(), parentID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, sub)
}

func (h *CourseHandler) deleteSubCourse(w http.ResponseWriter, r *http.Request) {
	parentID, ok := pathInt64(w, r, "id_cours_parent")
	if !ok {
		return
	}
	id, ok := pathInt64(w, r, "id_sous_cours")
	if !ok {
		return
	}
	msg, err := h.courseService.DeleteSubCourse(r.Context(), parentID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, msg)
}
