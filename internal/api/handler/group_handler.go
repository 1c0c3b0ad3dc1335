package handler

import (
	"net/http"

	"dactylo_api/internal/app/service"
	"dactylo_api/internal/common"

	"github.com/go-chi/chi/v5"
)

type GroupHandler struct {
	groupService *service.GroupService
	auth         Authenticate
}

func NewGroupHandler(gs *service.GroupService, auth Authenticate) *GroupHandler {
	return &GroupHandler{groupService: gs, auth: auth}
}

func (h *GroupHandler) RegisterRoutes(r chi.Router) {
	r.Route("/groupe", func(r chi.Router) {
		r.Get("/", h.listGroups)
		r.Get("/{id_groupe}", h.getGroup)
		r.Get("/{id_groupe}/admins", h.listAdmins)
		r.Get("/{id_groupe}/membres", h.listMembers)
		r.With(h.auth).Post("/", h.createGroup)
		r.With(h.auth).Delete("/{id_groupe}", h.deleteGroup)
	})

	r.Route("/groupe_utilisateurs", func(r chi.Router) {
		r.Get("/", h.listMemberships)
		r.Get("/{pseudo_utilisateur}", h.listUserMemberships)
		r.With(h.auth).Post("/", h.addMember)
		r.With(h.auth).Delete("/", h.removeMember)
	})
	// Legacy spelling kept for existing clients.
	r.With(h.auth).Delete("/groupes_utilisateurs", h.removeMember)
}

func (h *GroupHandler) createGroup(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.CreateGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	group, err := h.groupService.Create(r.Context(), user, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, group)
}

func (h *GroupHandler) listGroups(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	groups, err := h.groupService.List(r.Context(), page)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, groups)
}

func (h *GroupHandler) getGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id_groupe")
	if !ok {
		return
	}
	group, err := h.groupService.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, group)
}

func (h *GroupHandler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathInt64(w, r, "id_groupe")
	if !ok {
		return
	}
	msg, err := h.groupService.Delete(r.Context(), user, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, msg)
}

func (h *GroupHandler) listAdmins(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id_groupe")
	if !ok {
		return
	}
	users, err := h.groupService.ListAdmins(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, users)
}

func (h *GroupHandler) listMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id_groupe")
	if !ok {
		return
	}
	users, err := h.groupService.ListMembers(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, users)
}

func (h *GroupHandler) addMember(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	groupID, ok := queryInt64(w, r, "id_groupe")
	if !ok {
		return
	}
	estAdmin, ok := queryBool(w, r, "est_admin")
	if !ok {
		return
	}
	pseudo := r.URL.Query().Get("pseudo_utilisateur")
	if pseudo == "" {
		pseudo = user.Pseudo
	}

	membership, err := h.groupService.AddMember(r.Context(), user, service.AddMemberRequest{
		GroupID:  groupID,
		Pseudo:   pseudo,
		EstAdmin: estAdmin,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, membership)
}

func (h *GroupHandler) removeMember(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	groupID, ok := queryInt64(w, r, "id_groupe")
	if !ok {
		return
	}
	pseudo := r.URL.Query().Get("pseudo_utilisateur")
	if pseudo == "" {
		pseudo = user.Pseudo
	}

	result, err := h.groupService.RemoveMember(r.Context(), user, groupID, pseudo)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}

func (h *GroupHandler) listMemberships(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	memberships, err := h.groupService.ListMemberships(r.Context(), page)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, memberships)
}

func (h *GroupHandler) listUserMemberships(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	memberships, err := h.groupService.ListMembershipsByUser(r.Context(), chi.URLParam(r, "pseudo_utilisateur"), page)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, memberships)
}
