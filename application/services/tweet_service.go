package services

import (
	"context"
	"fmt"

	"chirper-backend/application/ports"
	"chirper-backend/domain/tweet"
	apperrors "chirper-backend/pkg/errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// tweetInput carries the validation rules for user-supplied tweet
// text.
type tweetInput struct {
	Text string `validate:"required,max=280"`
}

// TweetService authors tweets, retweets and replies. Distribution to
// follower timelines is not its job; that happens asynchronously off
// the Tweets table stream.
type TweetService struct {
	tweets   ports.TweetStore
	validate *validator.Validate
	logger   *zap.Logger
}

// NewTweetService creates a tweet service.
func NewTweetService(tweets ports.TweetStore, validate *validator.Validate, logger *zap.Logger) *TweetService {
	return &TweetService{
		tweets:   tweets,
		validate: validate,
		logger:   logger,
	}
}

// Tweet creates an original tweet for userID.
func (s *TweetService) Tweet(ctx context.Context, userID, text string) (*tweet.Tweet, error) {
	if err := s.validate.Struct(tweetInput{Text: text}); err != nil {
		return nil, apperrors.NewValidationError("tweet text must be 1-280 characters").WithCause(err)
	}

	t := tweet.New(userID, text)
	if err := s.tweets.CreateTweet(ctx, t); err != nil {
		return nil, fmt.Errorf("tweet: %w", err)
	}
	return &t, nil
}

// Retweet creates a retweet of tweetID for userID.
func (s *TweetService) Retweet(ctx context.Context, userID, tweetID string) (*tweet.Tweet, error) {
	original, err := s.tweets.GetByID(ctx, tweetID)
	if err != nil {
		return nil, fmt.Errorf("retweet: %w", err)
	}
	if original == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("tweet %s not found", tweetID))
	}

	rt := tweet.NewRetweet(userID, *original)
	if err := s.tweets.CreateRetweet(ctx, rt, *original); err != nil {
		return nil, fmt.Errorf("retweet: %w", err)
	}
	return &rt, nil
}

// Unretweet removes userID's retweet of tweetID.
func (s *TweetService) Unretweet(ctx context.Context, userID, tweetID string) error {
	original, err := s.tweets.GetByID(ctx, tweetID)
	if err != nil {
		return fmt.Errorf("unretweet: %w", err)
	}
	if original == nil {
		return apperrors.NewNotFoundError(fmt.Sprintf("tweet %s not found", tweetID))
	}

	rt, err := s.tweets.GetRetweetByCreator(ctx, userID, tweetID)
	if err != nil {
		return fmt.Errorf("unretweet: %w", err)
	}
	if rt == nil {
		return apperrors.NewNotFoundError(fmt.Sprintf("%s has not retweeted %s", userID, tweetID))
	}

	if err := s.tweets.DeleteRetweet(ctx, *rt, *original); err != nil {
		return fmt.Errorf("unretweet: %w", err)
	}
	return nil
}

// Reply creates a reply to tweetID for userID.
func (s *TweetService) Reply(ctx context.Context, userID, tweetID, text string) (*tweet.Tweet, error) {
	if err := s.validate.Struct(tweetInput{Text: text}); err != nil {
		return nil, apperrors.NewValidationError("reply text must be 1-280 characters").WithCause(err)
	}

	original, err := s.tweets.GetByID(ctx, tweetID)
	if err != nil {
		return nil, fmt.Errorf("reply: %w", err)
	}
	if original == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("tweet %s not found", tweetID))
	}

	reply := tweet.NewReply(userID, text, *original)
	if err := s.tweets.CreateReply(ctx, reply, *original); err != nil {
		return nil, fmt.Errorf("reply: %w", err)
	}
	return &reply, nil
}
