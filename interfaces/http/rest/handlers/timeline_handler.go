package handlers

import (
	"net/http"
	"strconv"
	"time"

	"chirper-backend/application/queries"
	"chirper-backend/pkg/common"
	apperrors "chirper-backend/pkg/errors"

	"go.uber.org/zap"
)

// TimelineHandler serves a user's home feed.
type TimelineHandler struct {
	timeline *queries.TimelineQuery
	logger   *zap.Logger
}

// NewTimelineHandler creates a timeline handler.
func NewTimelineHandler(timeline *queries.TimelineQuery, logger *zap.Logger) *TimelineHandler {
	return &TimelineHandler{timeline: timeline, logger: logger}
}

type timelineItemResponse struct {
	Tweet           *tweetResponse `json:"tweet,omitempty"`
	TweetID         string         `json:"tweetId"`
	Timestamp       string         `json:"timestamp"`
	DistributedFrom string         `json:"distributedFrom,omitempty"`
}

type timelineResponse struct {
	Items      []timelineItemResponse `json:"items"`
	NextCursor string                 `json:"nextCursor,omitempty"`
}

// Get handles GET /v1/timeline?limit=&cursor=
func (h *TimelineHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		apperrors.WriteHTTP(w, r, apperrors.NewUnauthorizedError("not authenticated"), h.logger)
		return
	}

	var limit int32
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed <= 0 {
			apperrors.WriteHTTP(w, r, apperrors.NewValidationError("limit must be a positive integer"), h.logger)
			return
		}
		limit = int32(parsed)
	}

	page, err := h.timeline.GetTimeline(r.Context(), userID, limit, r.URL.Query().Get("cursor"))
	if err != nil {
		apperrors.WriteHTTP(w, r, err, h.logger)
		return
	}

	resp := timelineResponse{
		Items:      make([]timelineItemResponse, 0, len(page.Items)),
		NextCursor: page.NextCursor,
	}
	for _, item := range page.Items {
		out := timelineItemResponse{
			TweetID:         item.Entry.TweetID,
			Timestamp:       item.Entry.Timestamp.Format(time.RFC3339),
			DistributedFrom: item.Entry.DistributedFrom,
		}
		if item.Tweet != nil {
			t := toTweetResponse(item.Tweet)
			out.Tweet = &t
		}
		resp.Items = append(resp.Items, out)
	}
	respondJSON(w, http.StatusOK, resp)
}
