package gateway

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nimasrn/donation-gateway/pkg/logger"
	"github.com/valyala/fasthttp"
)

var (
	// ErrUnsupportedBank is returned for bank codes outside the Midtrans set.
	ErrUnsupportedBank = errors.New("unsupported bank code")
)

// GatewayError wraps any unexpected provider response or transport failure.
type GatewayError struct {
	StatusCode string
	Message    string
}

func (e *GatewayError) Error() string {
	if e.StatusCode != "" {
		return fmt.Sprintf("midtrans: %s (status %s)", e.Message, e.StatusCode)
	}
	return "midtrans: " + e.Message
}

// Supported Midtrans virtual-account bank codes.
const (
	BankBNI     = "bni"
	BankBCA     = "bca"
	BankBRI     = "bri"
	BankMandiri = "mandiri"
	BankPermata = "permata"
	BankCIMB    = "cimb"
)

var supportedBanks = map[string]bool{
	BankBNI:     true,
	BankBCA:     true,
	BankBRI:     true,
	BankMandiri: true,
	BankPermata: true,
	BankCIMB:    true,
}

// IsSupportedBank reports whether code is a chargeable bank code.
func IsSupportedBank(code string) bool {
	return supportedBanks[code]
}

// Bank is a payer-facing bank option.
type Bank struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// AvailableBanks lists the banks a payer may select for instant payment.
func AvailableBanks() []Bank {
	return []Bank{
		{Name: "BNI", Code: BankBNI},
		{Name: "BCA", Code: BankBCA},
		{Name: "BRI", Code: BankBRI},
		{Name: "Mandiri Bill", Code: BankMandiri},
		{Name: "Permata", Code: BankPermata},
		{Name: "CIMB", Code: BankCIMB},
	}
}

// ChargeRequest asks for a virtual-account charge against a specific bank.
type ChargeRequest struct {
	OrderID     string
	GrossAmount int64
	BankCode    string
}

// Charge is the gateway's answer to a charge request. TransactionID is the
// external correlation key used by webhook reconciliation.
type Charge struct {
	TransactionID string
	OrderID       string
	Status        string
	FraudStatus   string
	VANumber      string
}

// TransactionStatus is the authoritative state of a transaction as reported
// by the provider's status endpoint.
type TransactionStatus struct {
	TransactionID     string `json:"transaction_id"`
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	TransactionTime   string `json:"transaction_time"`
}

// IsSuccess reports a settled transaction.
func (s *TransactionStatus) IsSuccess() bool {
	return s.TransactionStatus == "settlement"
}

// IsPending reports a transaction still awaiting payment.
func (s *TransactionStatus) IsPending() bool {
	return s.TransactionStatus == "pending"
}

// IsFailed reports a transaction that can no longer settle.
func (s *TransactionStatus) IsFailed() bool {
	switch s.TransactionStatus {
	case "expire", "cancel", "deny":
		return true
	}
	return false
}

// NotificationPayload is the webhook body Midtrans POSTs on status changes.
// Only the signature fields and the correlation ids are consumed; the status
// carried in the payload is never trusted directly.
type NotificationPayload struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
}

type Config struct {
	BaseURL         string
	ServerKey       string
	Timeout         time.Duration
	MaxConns        int
	ReadBufferSize  int
	WriteBufferSize int
}

// Client talks to the Midtrans Core API over HTTP.
type Client struct {
	config *Config
	client *fasthttp.Client
}

func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.BaseURL == "" {
		return nil, errors.New("base url is required")
	}
	if config.ServerKey == "" {
		return nil, errors.New("server key is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	httpClient := &fasthttp.Client{
		MaxConnsPerHost:     config.MaxConns,
		ReadTimeout:         config.Timeout,
		WriteTimeout:        config.Timeout,
		MaxIdleConnDuration: 60 * time.Second,
		ReadBufferSize:      config.ReadBufferSize,
		WriteBufferSize:     config.WriteBufferSize,
	}

	logger.Info("Midtrans client initialized", "base_url", config.BaseURL, "timeout", config.Timeout)

	return &Client{
		config: config,
		client: httpClient,
	}, nil
}

// CreateCharge requests a virtual-account charge for the payer's bank.
func (c *Client) CreateCharge(ctx context.Context, req *ChargeRequest) (*Charge, error) {
	if !IsSupportedBank(req.BankCode) {
		return nil, ErrUnsupportedBank
	}

	payload := chargePayload(req)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal charge payload: %w", err)
	}

	response, err := c.doRequest(ctx, "POST", "/v2/charge", body)
	if err != nil {
		return nil, err
	}

	var resp chargeResponse
	if err := json.Unmarshal(response, &resp); err != nil {
		return nil, &GatewayError{Message: "failed to unmarshal charge response: " + err.Error()}
	}
	if resp.StatusCode != "201" {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: resp.StatusMessage}
	}

	charge := &Charge{
		TransactionID: resp.TransactionID,
		OrderID:       resp.OrderID,
		Status:        resp.TransactionStatus,
		FraudStatus:   resp.FraudStatus,
		VANumber:      resp.vaNumber(req.BankCode),
	}

	logger.Info("Charge created",
		"order_id", charge.OrderID,
		"transaction_id", charge.TransactionID,
		"bank", req.BankCode,
		"va_number", charge.VANumber)

	return charge, nil
}

// GetTransactionStatus polls the provider for the authoritative state.
func (c *Client) GetTransactionStatus(ctx context.Context, transactionID string) (*TransactionStatus, error) {
	path := fmt.Sprintf("/v2/%s/status", transactionID)
	response, err := c.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var status TransactionStatus
	if err := json.Unmarshal(response, &status); err != nil {
		return nil, &GatewayError{Message: "failed to unmarshal status response: " + err.Error()}
	}

	return &status, nil
}

// VerifyNotificationSignature recomputes the SHA-512 digest over
// order_id + status_code + gross_amount + server key and compares it to the
// signature the payload carries. Malformed payloads verify as false, never
// as an error.
func (c *Client) VerifyNotificationSignature(p *NotificationPayload) bool {
	return VerifySignature(p, c.config.ServerKey)
}

func VerifySignature(p *NotificationPayload, serverKey string) bool {
	if p == nil || p.OrderID == "" || p.StatusCode == "" || p.SignatureKey == "" {
		return false
	}
	sum := sha512.Sum512([]byte(p.OrderID + p.StatusCode + p.GrossAmount + serverKey))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(p.SignatureKey)) == 1
}

// doRequest performs HTTP request with timeout
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	url := c.config.BaseURL + path
	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	req.Header.Set("Accept", "application/json")
	req.URI().SetUsername(c.config.ServerKey)

	if body != nil {
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}

	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, &GatewayError{Message: "request failed: " + err.Error()}
	}

	statusCode := resp.StatusCode()
	if statusCode != fasthttp.StatusOK && statusCode != fasthttp.StatusCreated {
		return nil, &GatewayError{
			StatusCode: fmt.Sprintf("%d", statusCode),
			Message:    fmt.Sprintf("unexpected status code: %d, body: %s", statusCode, resp.Body()),
		}
	}

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())

	return result, nil
}

// chargePayload builds the provider-specific request body per bank. Mandiri
// bills go through the echannel payment type, Permata has its own, the rest
// are plain bank transfers.
func chargePayload(req *ChargeRequest) map[string]interface{} {
	details := map[string]interface{}{
		"order_id":     req.OrderID,
		"gross_amount": req.GrossAmount,
	}

	switch req.BankCode {
	case BankMandiri:
		return map[string]interface{}{
			"payment_type":        "echannel",
			"transaction_details": details,
			"echannel": map[string]interface{}{
				"bill_info1": "Payment:",
				"bill_info2": "Online Payment",
			},
		}
	case BankPermata:
		return map[string]interface{}{
			"payment_type":        "permata",
			"transaction_details": details,
		}
	default:
		return map[string]interface{}{
			"payment_type":        "bank_transfer",
			"transaction_details": details,
			"bank_transfer": map[string]interface{}{
				"bank": req.BankCode,
			},
		}
	}
}

type chargeResponse struct {
	StatusCode        string `json:"status_code"`
	StatusMessage     string `json:"status_message"`
	TransactionID     string `json:"transaction_id"`
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	VANumbers         []struct {
		Bank     string `json:"bank"`
		VANumber string `json:"va_number"`
	} `json:"va_numbers"`
	PermataVANumber string `json:"permata_va_number"`
	BillerCode      string `json:"biller_code"`
	BillKey         string `json:"bill_key"`
}

// vaNumber extracts the virtual-account number for the charged bank. Mandiri
// has no VA; the payer keys in billerCode#billKey instead.
func (r *chargeResponse) vaNumber(bankCode string) string {
	switch bankCode {
	case BankMandiri:
		return r.BillerCode + "#" + r.BillKey
	case BankPermata:
		return r.PermataVANumber
	default:
		for _, va := range r.VANumbers {
			if va.VANumber != "" {
				return va.VANumber
			}
		}
		return ""
	}
}
