package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"dactylo_api/internal/api/middleware"
	"dactylo_api/internal/common"
	"dactylo_api/internal/domain/model"
	"dactylo_api/internal/domain/repository"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// Authenticate is the middleware guarding routes that need a current user.
type Authenticate func(http.Handler) http.Handler

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	return true
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	common.RespondWithServiceError(w, middleware.LoggerFromContext(r.Context()), err)
}

func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, middleware.CredentialsError)
	}
	return user, ok
}

func pathInt64(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("paramètre '%s' invalide", name))
		return 0, false
	}
	return id, true
}

func queryInt64(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		common.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("paramètre '%s' requis", name))
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("paramètre '%s' invalide", name))
		return 0, false
	}
	return v, true
}

func queryFloat(w http.ResponseWriter, r *http.Request, name string) (float64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		common.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("paramètre '%s' requis", name))
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("paramètre '%s' invalide", name))
		return 0, false
	}
	return v, true
}

func queryBool(w http.ResponseWriter, r *http.Request, name string) (bool, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("paramètre '%s' invalide", name))
		return false, false
	}
	return v, true
}

// pageFromQuery reads skip/limit; absent values fall back to the repository defaults.
func pageFromQuery(w http.ResponseWriter, r *http.Request) (repository.Page, bool) {
	var page repository.Page
	q := r.URL.Query()
	for name, dst := range map[string]*int{"skip": &page.Skip, "limit": &page.Limit} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			common.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("paramètre '%s' invalide", name))
			return page, false
		}
		*dst = v
	}
	return page, true
}
