package repository

import (
	"time"

	"github.com/nimasrn/donation-gateway/internal/model"
)

type CommentEntity struct {
	ID            int64            `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	UserID        int64            `db:"user_id"        gorm:"column:user_id;not null;index"`
	User          *UserEntity      `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:RESTRICT"`
	StreamingCode string           `db:"streaming_code" gorm:"column:streaming_code;not null;index"`
	Streaming     *StreamingEntity `gorm:"foreignKey:StreamingCode;references:Code;constraint:OnDelete:RESTRICT"`
	Comment       string           `db:"comment"        gorm:"column:comment;not null"`
	CreatedAt     time.Time        `db:"created_at"     gorm:"column:created_at;autoCreateTime;index"`
}

func (CommentEntity) TableName() string {
	return "comments"
}

func toCommentEntity(m *model.Comment) *CommentEntity {
	if m == nil {
		return nil
	}
	return &CommentEntity{
		ID:            m.ID,
		UserID:        m.UserID,
		StreamingCode: m.StreamingCode,
		Comment:       m.Comment,
		CreatedAt:     m.CreatedAt,
	}
}

func toCommentModel(e *CommentEntity) *model.Comment {
	if e == nil {
		return nil
	}
	return &model.Comment{
		ID:            e.ID,
		UserID:        e.UserID,
		User:          toUserModel(e.User),
		StreamingCode: e.StreamingCode,
		Comment:       e.Comment,
		CreatedAt:     e.CreatedAt,
	}
}

func toCommentModels(entities []*CommentEntity) []*model.Comment {
	if entities == nil {
		return nil
	}
	models := make([]*model.Comment, len(entities))
	for i, e := range entities {
		models[i] = toCommentModel(e)
	}
	return models
}
