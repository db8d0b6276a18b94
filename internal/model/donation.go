package model

import (
	"errors"
	"time"
)

// DonationStatus is the lifecycle state of a donation.
type DonationStatus string

const (
	DonationStatusPending          DonationStatus = "pending"
	DonationStatusNeedConfirmation DonationStatus = "need_confirmation"
	DonationStatusSuccess          DonationStatus = "success"
	DonationStatusFailed           DonationStatus = "failed"
)

// Terminal reports whether no further transition is permitted.
func (s DonationStatus) Terminal() bool {
	return s == DonationStatusSuccess || s == DonationStatusFailed
}

// PaymentType selects the settlement path of a donation.
type PaymentType string

const (
	PaymentTypeInstant PaymentType = "instant"
	PaymentTypeManual  PaymentType = "manual"
)

type Donation struct {
	ID            int64          `json:"id"`
	UserID        int64          `json:"user_id"`
	User          *User          `json:"-"`
	StreamingCode string         `json:"streaming_code"`
	Streaming     *Streaming     `json:"-"`
	Amount        int64          `json:"amount"`
	PaymentType   PaymentType    `json:"payment_type"`
	Status        DonationStatus `json:"status"`
	SuccessAt     *time.Time     `json:"success_at"` // nullable, set only on success

	// instant payment
	PaymentID string `json:"payment_id,omitempty"` // gateway transaction id
	VANumber  string `json:"va_number,omitempty"`
	BankCode  string `json:"bank_code,omitempty"`

	// manual payment
	BankName  string `json:"bank_name,omitempty"`
	ProofURL  string `json:"proof_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Donation) TableName() string { return "donations" }

// ManualPayment carries the manual-path input: the payer's bank and an
// optional base64 data-URI proof of transfer.
type ManualPayment struct {
	BankName  string
	ProofData string
}

type DonationCreateRequest struct {
	StreamingCode string
	UserID        int64
	Amount        int64

	// exactly one of the two below is set
	BankCode      string // instant
	ManualPayment *ManualPayment
}

func (p DonationCreateRequest) Validate() error {
	if p.StreamingCode == "" {
		return errors.New("streaming code is required")
	}
	if p.UserID == 0 {
		return errors.New("user is required")
	}
	if p.Amount <= 0 {
		return errors.New("amount must be greater than zero")
	}
	if p.BankCode == "" && p.ManualPayment == nil {
		return errors.New("either bank_code or manual_payment is required")
	}
	if p.BankCode != "" && p.ManualPayment != nil {
		return errors.New("bank_code and manual_payment are mutually exclusive")
	}
	if p.ManualPayment != nil && p.ManualPayment.BankName == "" {
		return errors.New("bank_name is required for manual payment")
	}
	return nil
}

// DonationFilter controls List queries.
type DonationFilter struct {
	StreamingCode *string
	UserID        *int64
	Statuses      []DonationStatus
	Limit         int
	Offset        int
	Desc          bool // order by created_at
}

// DonationSettledEvent is published to the alerts stream when a donation
// reaches success through either path.
type DonationSettledEvent struct {
	DonationID    int64       `json:"donation_id"`
	StreamingCode string      `json:"streaming_code"`
	DonorName     string      `json:"donor_name"`
	Amount        int64       `json:"amount"`
	PaymentType   PaymentType `json:"payment_type"`
	SettledAt     time.Time   `json:"settled_at"`
}
