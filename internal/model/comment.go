package model

import (
	"errors"
	"time"
)

type Comment struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	User          *User     `json:"-"`
	StreamingCode string    `json:"streaming_code"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Comment) TableName() string { return "comments" }

type CommentCreateRequest struct {
	StreamingCode string
	UserID        int64
	Comment       string
}

func (p CommentCreateRequest) Validate() error {
	if p.StreamingCode == "" {
		return errors.New("streaming code is required")
	}
	if p.UserID == 0 {
		return errors.New("user is required")
	}
	if p.Comment == "" {
		return errors.New("comment cannot be empty")
	}
	return nil
}
