package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pribylovaa/go-discussions/internal/models"
	"github.com/pribylovaa/go-discussions/internal/service"
	"github.com/pribylovaa/go-discussions/internal/transport/http/apierrors"
	"github.com/pribylovaa/go-discussions/internal/transport/http/middleware"
)

// actor возвращает действующего пользователя; маршруты записи закрыты RequireUser.
func actor(r *http.Request) (models.User, bool) {
	u := middleware.UserFrom(r.Context())
	if u == nil {
		return models.User{}, false
	}
	return *u, true
}

func (h *Handlers) CreateComment(w http.ResponseWriter, r *http.Request) {
	author, ok := actor(r)
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
		return
	}

	var in createCommentRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	c, err := h.svc.CreateComment(r.Context(), service.CreateCommentInput{
		EntityID:   chi.URLParam(r, "entity_id"),
		EntityType: models.ParseEntityType(in.EntityType),
		Author:     author,
		Content:    in.Content,
		Highlight:  in.Highlight.toModel(),
		ParentID:   in.ParentID,
		MentionIDs: in.Mentions,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, resultResponse{Result: newCommentDTO(c)})
}

func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	roots, err := h.svc.ListComments(r.Context(), chi.URLParam(r, "entity_id"), middleware.UserFrom(r.Context()))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resultResponse{Result: treeToDTO(roots)})
}

func (h *Handlers) GetComment(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.CommentByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resultResponse{Result: newCommentDTO(c)})
}

func (h *Handlers) UpdateComment(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(r)
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
		return
	}

	var in updateCommentRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	c, err := h.svc.UpdateComment(r.Context(), service.UpdateCommentInput{
		CommentID:  chi.URLParam(r, "id"),
		Actor:      user,
		Content:    in.Content,
		Highlight:  in.Highlight.toModel(),
		MentionIDs: in.Mentions,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resultResponse{Result: newCommentDTO(c)})
}

func (h *Handlers) RemoveComment(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(r)
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
		return
	}

	if err := h.svc.RemoveComment(r.Context(), chi.URLParam(r, "id"), user); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *Handlers) Vote(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(r)
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
		return
	}

	var in voteRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	if err := h.svc.Vote(r.Context(), chi.URLParam(r, "id"), user, models.VoteValue(in.Value)); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
