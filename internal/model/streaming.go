package model

import (
	"errors"
	"time"
)

// StreamingStatus is the lifecycle state of a streaming campaign.
type StreamingStatus string

const (
	StreamingStatusPending StreamingStatus = "pending"
	StreamingStatusLive    StreamingStatus = "live"
	StreamingStatusEnded   StreamingStatus = "ended"
)

// BankInfo is the payout account shown to manual donors.
type BankInfo struct {
	Name          string `json:"name"`
	HolderName    string `json:"holder_name"`
	AccountNumber string `json:"account_number"`
}

type Streaming struct {
	Code          string          `json:"code"`
	UserID        int64           `json:"user_id"`
	User          *User           `json:"-"`
	DateStart     time.Time       `json:"date_start"`
	DateEnd       time.Time       `json:"date_end"`
	Status        StreamingStatus `json:"status"`
	Bank          BankInfo        `json:"bank"`
	DonationTotal int64           `json:"donation_total"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (Streaming) TableName() string { return "streamings" }

type StreamingCreateRequest struct {
	UserID    int64
	DateStart time.Time
	DateEnd   time.Time
	Bank      BankInfo
}

func (p StreamingCreateRequest) Validate() error {
	if p.UserID == 0 {
		return errors.New("user is required")
	}
	if p.DateStart.IsZero() || p.DateEnd.IsZero() {
		return errors.New("date_start and date_end are required")
	}
	if p.DateStart.After(p.DateEnd) {
		return errors.New("date_start cannot be greater than date_end")
	}
	return nil
}
