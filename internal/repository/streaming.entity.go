package repository

import (
	"time"

	"github.com/nimasrn/donation-gateway/internal/model"
)

type StreamingEntity struct {
	Code              string      `db:"code"                gorm:"primaryKey;column:code;size:8"`
	UserID            int64       `db:"user_id"             gorm:"column:user_id;not null;index"`
	User              *UserEntity `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:RESTRICT"`
	DateStart         time.Time   `db:"date_start"          gorm:"column:date_start;not null"`
	DateEnd           time.Time   `db:"date_end"            gorm:"column:date_end;not null"`
	Status            string      `db:"status"              gorm:"column:status;not null"`
	BankName          string      `db:"bank_name"           gorm:"column:bank_name"`
	BankHolderName    string      `db:"bank_holder_name"    gorm:"column:bank_holder_name"`
	BankAccountNumber string      `db:"bank_account_number" gorm:"column:bank_account_number"`
	DonationTotal     int64       `db:"donation_total"      gorm:"column:donation_total;not null;default:0"`
	CreatedAt         time.Time   `db:"created_at"          gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time   `db:"updated_at"          gorm:"column:updated_at;autoUpdateTime"`
}

func (StreamingEntity) TableName() string {
	return "streamings"
}

func toStreamingEntity(m *model.Streaming) *StreamingEntity {
	if m == nil {
		return nil
	}
	return &StreamingEntity{
		Code:              m.Code,
		UserID:            m.UserID,
		DateStart:         m.DateStart,
		DateEnd:           m.DateEnd,
		Status:            string(m.Status),
		BankName:          m.Bank.Name,
		BankHolderName:    m.Bank.HolderName,
		BankAccountNumber: m.Bank.AccountNumber,
		DonationTotal:     m.DonationTotal,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func toStreamingModel(e *StreamingEntity) *model.Streaming {
	if e == nil {
		return nil
	}
	return &model.Streaming{
		Code:      e.Code,
		UserID:    e.UserID,
		User:      toUserModel(e.User),
		DateStart: e.DateStart,
		DateEnd:   e.DateEnd,
		Status:    model.StreamingStatus(e.Status),
		Bank: model.BankInfo{
			Name:          e.BankName,
			HolderName:    e.BankHolderName,
			AccountNumber: e.BankAccountNumber,
		},
		DonationTotal: e.DonationTotal,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}
