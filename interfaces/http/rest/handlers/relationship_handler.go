package handlers

import (
	"net/http"

	"chirper-backend/application/services"
	"chirper-backend/pkg/common"
	apperrors "chirper-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RelationshipHandler exposes follow and unfollow over REST.
type RelationshipHandler struct {
	relationships *services.RelationshipService
	logger        *zap.Logger
}

// NewRelationshipHandler creates a relationship handler.
func NewRelationshipHandler(relationships *services.RelationshipService, logger *zap.Logger) *RelationshipHandler {
	return &RelationshipHandler{relationships: relationships, logger: logger}
}

// Follow handles POST /v1/follows/{userID}
func (h *RelationshipHandler) Follow(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		apperrors.WriteHTTP(w, r, apperrors.NewUnauthorizedError("not authenticated"), h.logger)
		return
	}

	if err := h.relationships.Follow(r.Context(), userID, chi.URLParam(r, "userID")); err != nil {
		apperrors.WriteHTTP(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Unfollow handles DELETE /v1/follows/{userID}
func (h *RelationshipHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		apperrors.WriteHTTP(w, r, apperrors.NewUnauthorizedError("not authenticated"), h.logger)
		return
	}

	if err := h.relationships.Unfollow(r.Context(), userID, chi.URLParam(r, "userID")); err != nil {
		apperrors.WriteHTTP(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
