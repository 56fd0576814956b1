package services

import (
	"context"
	"fmt"

	"chirper-backend/application/ports"
	apperrors "chirper-backend/pkg/errors"

	"go.uber.org/zap"
)

// RelationshipService creates and removes follow edges. The actual
// timeline back-fill and tear-down runs asynchronously off the
// Relationships table stream.
type RelationshipService struct {
	relationships ports.RelationshipStore
	logger        *zap.Logger
}

// NewRelationshipService creates a relationship service.
func NewRelationshipService(relationships ports.RelationshipStore, logger *zap.Logger) *RelationshipService {
	return &RelationshipService{
		relationships: relationships,
		logger:        logger,
	}
}

// Follow makes userID follow otherUserID.
func (s *RelationshipService) Follow(ctx context.Context, userID, otherUserID string) error {
	if userID == otherUserID {
		return apperrors.NewValidationError("cannot follow yourself")
	}
	if err := s.relationships.Follow(ctx, userID, otherUserID); err != nil {
		return fmt.Errorf("follow: %w", err)
	}
	return nil
}

// Unfollow makes userID stop following otherUserID.
func (s *RelationshipService) Unfollow(ctx context.Context, userID, otherUserID string) error {
	if userID == otherUserID {
		return apperrors.NewValidationError("cannot unfollow yourself")
	}
	if err := s.relationships.Unfollow(ctx, userID, otherUserID); err != nil {
		return fmt.Errorf("unfollow: %w", err)
	}
	return nil
}
