package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/nimasrn/donation-gateway/internal/model"
	"github.com/nimasrn/donation-gateway/internal/repository"
	"github.com/nimasrn/donation-gateway/pkg/logger"
)

const streamingCodeLen = 8
const streamingCodeAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

type StreamingRepository interface {
	Create(ctx context.Context, s *model.Streaming) (*model.Streaming, error)
	GetByCode(ctx context.Context, code string) (*model.Streaming, error)
	UpdateStatus(ctx context.Context, code string, to model.StreamingStatus) error
}

type CommentRepository interface {
	Create(ctx context.Context, c *model.Comment) (*model.Comment, error)
	ListByStreaming(ctx context.Context, code string, limit, offset int) ([]*model.Comment, int64, error)
}

type StreamingService struct {
	streamingRepo StreamingRepository
	commentRepo   CommentRepository
}

func NewStreamingService(streamingRepo StreamingRepository, commentRepo CommentRepository) *StreamingService {
	return &StreamingService{
		streamingRepo: streamingRepo,
		commentRepo:   commentRepo,
	}
}

func (s *StreamingService) Create(ctx context.Context, p model.StreamingCreateRequest) (*model.Streaming, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	streaming := &model.Streaming{
		Code:      newStreamingCode(),
		UserID:    p.UserID,
		DateStart: p.DateStart,
		DateEnd:   p.DateEnd,
		Status:    model.StreamingStatusPending,
		Bank:      p.Bank,
	}

	created, err := s.streamingRepo.Create(ctx, streaming)
	if err != nil {
		// code collisions are astronomically rare but cheap to retry once
		if errors.Is(err, repository.ErrDuplicateCode) {
			streaming.Code = newStreamingCode()
			return s.streamingRepo.Create(ctx, streaming)
		}
		return nil, fmt.Errorf("create streaming: %w", err)
	}

	logger.Info("Streaming created", "code", created.Code, "user_id", created.UserID)
	return created, nil
}

func (s *StreamingService) Get(ctx context.Context, code string) (*model.Streaming, error) {
	streaming, err := s.streamingRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrStreamingNotFound) {
			return nil, ErrStreamingGone
		}
		return nil, err
	}
	return streaming, nil
}

// Start flips the campaign live. Owner only.
func (s *StreamingService) Start(ctx context.Context, code string, actingUserID int64) error {
	return s.setStatus(ctx, code, actingUserID, model.StreamingStatusLive)
}

// Stop ends the campaign. Owner only.
func (s *StreamingService) Stop(ctx context.Context, code string, actingUserID int64) error {
	return s.setStatus(ctx, code, actingUserID, model.StreamingStatusEnded)
}

func (s *StreamingService) setStatus(ctx context.Context, code string, actingUserID int64, to model.StreamingStatus) error {
	streaming, err := s.Get(ctx, code)
	if err != nil {
		return err
	}
	if streaming.UserID != actingUserID {
		return ErrForbidden
	}
	return s.streamingRepo.UpdateStatus(ctx, code, to)
}

func (s *StreamingService) CreateComment(ctx context.Context, p model.CommentCreateRequest) (*model.Comment, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.Get(ctx, p.StreamingCode); err != nil {
		return nil, err
	}

	return s.commentRepo.Create(ctx, &model.Comment{
		UserID:        p.UserID,
		StreamingCode: p.StreamingCode,
		Comment:       p.Comment,
	})
}

func (s *StreamingService) ListComments(ctx context.Context, code string, limit, offset int) ([]*model.Comment, int64, error) {
	return s.commentRepo.ListByStreaming(ctx, code, limit, offset)
}

func newStreamingCode() string {
	b := make([]byte, streamingCodeLen)
	max := big.NewInt(int64(len(streamingCodeAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err) // crypto/rand never fails on supported platforms
		}
		b[i] = streamingCodeAlphabet[n.Int64()]
	}
	return string(b)
}
