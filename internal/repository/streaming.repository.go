package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/donation-gateway/internal/model"
	"github.com/nimasrn/donation-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrStreamingNotFound is returned when a streaming does not exist.
	ErrStreamingNotFound = errors.New("streaming not found")
	// ErrDuplicateCode is returned when a generated streaming code collides.
	ErrDuplicateCode = errors.New("streaming code already exists")
)

type StreamingRepository struct {
	*pg.DB
}

func NewStreamingRepository(db *pg.DB) *StreamingRepository {
	return &StreamingRepository{
		db,
	}
}

func (r *StreamingRepository) Create(ctx context.Context, s *model.Streaming) (*model.Streaming, error) {
	entity := toStreamingEntity(s)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}

	return toStreamingModel(entity), nil
}

func (r *StreamingRepository) GetByCode(ctx context.Context, code string) (*model.Streaming, error) {
	var entity StreamingEntity
	err := r.Read(ctx).WithContext(ctx).
		Preload("User").
		Where("code = ?", code).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStreamingNotFound
		}
		return nil, err
	}
	return toStreamingModel(&entity), nil
}

func (r *StreamingRepository) UpdateStatus(ctx context.Context, code string, to model.StreamingStatus) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&StreamingEntity{}).
		Where("code = ?", code).
		Update("status", string(to))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStreamingNotFound
	}
	return nil
}

// AddDonationTotal increments the running settled total atomically.
func (r *StreamingRepository) AddDonationTotal(ctx context.Context, code string, amount int64) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&StreamingEntity{}).
		Where("code = ?", code).
		Update("donation_total", gorm.Expr("donation_total + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStreamingNotFound
	}
	return nil
}
