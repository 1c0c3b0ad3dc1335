package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"dactylo_api/internal/app/service"
	"dactylo_api/internal/common"

	"github.com/go-chi/chi/v5"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type StatHandler struct {
	statService *service.StatService
	userService *service.UserService
	auth        Authenticate
}

func NewStatHandler(ss *service.StatService, us *service.UserService, auth Authenticate) *StatHandler {
	return &StatHandler{statService: ss, userService: us, auth: auth}
}

func (h *StatHandler) RegisterRoutes(r chi.Router) {
	r.Route("/stats", func(r chi.Router) {
		r.With(h.auth).Post("/", h.recordStat)
		r.Get("/{pseudo}", h.summary)
		r.Get("/{pseudo}/historique", h.history)
		r.With(h.auth).Get("/{pseudo}/export", h.export)
	})
}

func (h *StatHandler) recordStat(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.RecordStatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	stat, err := h.statService.Record(r.Context(), user, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, stat)
}

func (h *StatHandler) summary(w http.ResponseWriter, r *http.Request) {
	stats, err := h.userService.Stats(r.Context(), chi.URLParam(r, "pseudo"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, stats)
}

func (h *StatHandler) history(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	stats, err := h.statService.History(r.Context(), chi.URLParam(r, "pseudo"), r.URL.Query().Get("type_stat"), page)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, stats)
}

// export buffers the workbook so a failure can still be reported as JSON.
func (h *StatHandler) export(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	pseudo := chi.URLParam(r, "pseudo")

	var buf bytes.Buffer
	if err := h.statService.Export(r.Context(), user, pseudo, &buf); err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="stats_%s.xlsx"`, pseudo))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
