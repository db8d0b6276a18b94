package repository

import (
	"time"

	"github.com/nimasrn/donation-gateway/internal/model"
)

type DonationEntity struct {
	ID            int64            `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	UserID        int64            `db:"user_id"        gorm:"column:user_id;not null;index"`
	User          *UserEntity      `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:RESTRICT"`
	StreamingCode string           `db:"streaming_code" gorm:"column:streaming_code;not null;index"`
	Streaming     *StreamingEntity `gorm:"foreignKey:StreamingCode;references:Code;constraint:OnDelete:RESTRICT"`
	Amount        int64            `db:"amount"         gorm:"column:amount;not null"`
	PaymentType   string           `db:"payment_type"   gorm:"column:payment_type;not null"`
	Status        string           `db:"status"         gorm:"column:status;not null;index"`
	SuccessAt     *time.Time       `db:"success_at"     gorm:"column:success_at"` // nullable

	// instant payment; payment_id is the gateway correlation key
	PaymentID *string `db:"payment_id" gorm:"column:payment_id;uniqueIndex"`
	VANumber  string  `db:"va_number"  gorm:"column:va_number"`
	BankCode  string  `db:"bank_code"  gorm:"column:bank_code"`

	// manual payment
	BankName string `db:"bank_name" gorm:"column:bank_name"`
	ProofURL string `db:"proof_url" gorm:"column:proof_url"`

	CreatedAt time.Time `db:"created_at" gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt time.Time `db:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (DonationEntity) TableName() string {
	return "donations"
}

func toDonationEntity(m *model.Donation) *DonationEntity {
	if m == nil {
		return nil
	}
	var paymentID *string
	if m.PaymentID != "" {
		id := m.PaymentID
		paymentID = &id
	}
	return &DonationEntity{
		ID:            m.ID,
		UserID:        m.UserID,
		StreamingCode: m.StreamingCode,
		Amount:        m.Amount,
		PaymentType:   string(m.PaymentType),
		Status:        string(m.Status),
		SuccessAt:     m.SuccessAt,
		PaymentID:     paymentID,
		VANumber:      m.VANumber,
		BankCode:      m.BankCode,
		BankName:      m.BankName,
		ProofURL:      m.ProofURL,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toDonationModel(e *DonationEntity) *model.Donation {
	if e == nil {
		return nil
	}
	paymentID := ""
	if e.PaymentID != nil {
		paymentID = *e.PaymentID
	}
	return &model.Donation{
		ID:            e.ID,
		UserID:        e.UserID,
		User:          toUserModel(e.User),
		StreamingCode: e.StreamingCode,
		Streaming:     toStreamingModel(e.Streaming),
		Amount:        e.Amount,
		PaymentType:   model.PaymentType(e.PaymentType),
		Status:        model.DonationStatus(e.Status),
		SuccessAt:     e.SuccessAt,
		PaymentID:     paymentID,
		VANumber:      e.VANumber,
		BankCode:      e.BankCode,
		BankName:      e.BankName,
		ProofURL:      e.ProofURL,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func toDonationModels(entities []*DonationEntity) []*model.Donation {
	if entities == nil {
		return nil
	}
	models := make([]*model.Donation, len(entities))
	for i, e := range entities {
		models[i] = toDonationModel(e)
	}
	return models
}
