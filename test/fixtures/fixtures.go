package fixtures

import (
	"encoding/base64"
	"time"

	"github.com/nimasrn/donation-gateway/internal/model"
)

var (
	TestStreamer = model.User{
		ID:    1,
		Name:  "Test Streamer",
		Email: "streamer@example.com",
	}

	TestDonor = model.User{
		ID:    2,
		Name:  "Test Donor",
		Email: "donor@example.com",
	}

	TestStreaming = model.Streaming{
		Code:   "abc12345",
		UserID: 1,
		Status: model.StreamingStatusLive,
		Bank: model.BankInfo{
			Name:          "BCA",
			HolderName:    "Test Streamer",
			AccountNumber: "1234567890",
		},
	}
)

func NewTestDonation(userID int64, streamingCode string, amount int64, paymentType model.PaymentType, status model.DonationStatus) *model.Donation {
	return &model.Donation{
		UserID:        userID,
		StreamingCode: streamingCode,
		Amount:        amount,
		PaymentType:   paymentType,
		Status:        status,
		CreatedAt:     time.Now(),
	}
}

func InstantDonationCreateRequest(userID int64, streamingCode string, amount int64, bankCode string) model.DonationCreateRequest {
	return model.DonationCreateRequest{
		StreamingCode: streamingCode,
		UserID:        userID,
		Amount:        amount,
		BankCode:      bankCode,
	}
}

func ManualDonationCreateRequest(userID int64, streamingCode string, amount int64, bankName string) model.DonationCreateRequest {
	return model.DonationCreateRequest{
		StreamingCode: streamingCode,
		UserID:        userID,
		Amount:        amount,
		ManualPayment: &model.ManualPayment{BankName: bankName},
	}
}

func ProofDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("transfer receipt bytes"))
}

var (
	ValidAmounts   = []int64{1, 1000, 50000, 1000000}
	InvalidAmounts = []int64{0, -1, -50000}

	SupportedBankCodes   = []string{"bni", "bca", "bri", "mandiri", "permata", "cimb"}
	UnsupportedBankCodes = []string{"", "hsbc", "BNI", "monopoly"}
)

func DonationFilterByStreaming(code string) model.DonationFilter {
	return model.DonationFilter{
		StreamingCode: &code,
		Limit:         50,
		Offset:        0,
		Desc:          false,
	}
}

func DonationFilterByStatus(code string, statuses ...model.DonationStatus) model.DonationFilter {
	return model.DonationFilter{
		StreamingCode: &code,
		Statuses:      statuses,
		Limit:         50,
		Offset:        0,
		Desc:          false,
	}
}

func DonationFilterWithPagination(code string, limit, offset int) model.DonationFilter {
	return model.DonationFilter{
		StreamingCode: &code,
		Limit:         limit,
		Offset:        offset,
		Desc:          false,
	}
}
