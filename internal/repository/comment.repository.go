package repository

import (
	"context"

	"github.com/nimasrn/donation-gateway/internal/model"
	"github.com/nimasrn/donation-gateway/pkg/pg"
)

type CommentRepository struct {
	*pg.DB
}

func NewCommentRepository(db *pg.DB) *CommentRepository {
	return &CommentRepository{
		db,
	}
}

func (r *CommentRepository) Create(ctx context.Context, c *model.Comment) (*model.Comment, error) {
	entity := toCommentEntity(c)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toCommentModel(entity), nil
}

func (r *CommentRepository) ListByStreaming(ctx context.Context, code string, limit, offset int) ([]*model.Comment, int64, error) {
	q := r.Read(ctx).WithContext(ctx).
		Model(&CommentEntity{}).
		Where("streaming_code = ?", code)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var entities []*CommentEntity
	if err := q.Preload("User").Order("created_at ASC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toCommentModels(entities), total, nil
}
