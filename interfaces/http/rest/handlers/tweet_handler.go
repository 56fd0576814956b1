package handlers

import (
	"encoding/json"
	"net/http"

	"chirper-backend/application/services"
	"chirper-backend/domain/tweet"
	"chirper-backend/pkg/common"
	apperrors "chirper-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// TweetHandler exposes the authoring operations over REST.
type TweetHandler struct {
	tweets *services.TweetService
	logger *zap.Logger
}

// NewTweetHandler creates a tweet handler.
func NewTweetHandler(tweets *services.TweetService, logger *zap.Logger) *TweetHandler {
	return &TweetHandler{tweets: tweets, logger: logger}
}

type tweetRequest struct {
	Text string `json:"text"`
}

type tweetResponse struct {
	ID               string   `json:"id"`
	Kind             string   `json:"kind"`
	Creator          string   `json:"creator"`
	CreatedAt        string   `json:"createdAt"`
	Text             string   `json:"text,omitempty"`
	RetweetOf        string   `json:"retweetOf,omitempty"`
	InReplyToTweetID string   `json:"inReplyToTweetId,omitempty"`
	InReplyToUserIDs []string `json:"inReplyToUserIds,omitempty"`
}

func toTweetResponse(t *tweet.Tweet) tweetResponse {
	return tweetResponse{
		ID:               t.ID,
		Kind:             t.Kind.String(),
		Creator:          t.Creator,
		CreatedAt:        t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		Text:             t.Text,
		RetweetOf:        t.RetweetOf,
		InReplyToTweetID: t.InReplyToTweetID,
		InReplyToUserIDs: t.InReplyToUserIDs,
	}
}

// Create handles POST /v1/tweets
func (h *TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		apperrors.WriteHTTP(w, r, apperrors.NewUnauthorizedError("not authenticated"), h.logger)
		return
	}

	var req tweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteHTTP(w, r, apperrors.NewValidationError("invalid request body").WithCause(err), h.logger)
		return
	}

	t, err := h.tweets.Tweet(r.Context(), userID, req.Text)
	if err != nil {
		apperrors.WriteHTTP(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusCreated, toTweetResponse(t))
}

// Retweet handles POST /v1/tweets/{tweetID}/retweet
func (h *TweetHandler) Retweet(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		apperrors.WriteHTTP(w, r, apperrors.NewUnauthorizedError("not authenticated"), h.logger)
		return
	}

	t, err := h.tweets.Retweet(r.Context(), userID, chi.URLParam(r, "tweetID"))
	if err != nil {
		apperrors.WriteHTTP(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusCreated, toTweetResponse(t))
}

// Unretweet handles DELETE /v1/tweets/{tweetID}/retweet
func (h *TweetHandler) Unretweet(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		apperrors.WriteHTTP(w, r, apperrors.NewUnauthorizedError("not authenticated"), h.logger)
		return
	}

	if err := h.tweets.Unretweet(r.Context(), userID, chi.URLParam(r, "tweetID")); err != nil {
		apperrors.WriteHTTP(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reply handles POST /v1/tweets/{tweetID}/reply
func (h *TweetHandler) Reply(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		apperrors.WriteHTTP(w, r, apperrors.NewUnauthorizedError("not authenticated"), h.logger)
		return
	}

	var req tweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteHTTP(w, r, apperrors.NewValidationError("invalid request body").WithCause(err), h.logger)
		return
	}

	t, err := h.tweets.Reply(r.Context(), userID, chi.URLParam(r, "tweetID"), req.Text)
	if err != nil {
		apperrors.WriteHTTP(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusCreated, toTweetResponse(t))
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
