package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/fasthttp/router"
	gateway "github.com/nimasrn/donation-gateway/internal/gateways"
	"github.com/nimasrn/donation-gateway/internal/model"
	xhttp "github.com/nimasrn/donation-gateway/pkg/http"
)

type DonationService interface {
	Create(ctx context.Context, p model.DonationCreateRequest) (*model.Donation, error)
	Get(ctx context.Context, id int64) (*model.Donation, error)
	List(ctx context.Context, f model.DonationFilter) ([]*model.Donation, int64, error)
	Confirm(ctx context.Context, donationID, actingUserID int64) error
	Reject(ctx context.Context, donationID, actingUserID int64) error
	AttachProof(ctx context.Context, donationID, actingUserID int64, dataURI string) (*model.Donation, error)
}

type DonationHandler struct {
	svc DonationService
}

func RegisterDonationRoutes(e *router.Group, h *DonationHandler, verifier TokenVerifier) {
	e.POST("/donations", RequireAuth(verifier, h.CreateDonation))
	e.GET("/donations", RequireAuth(verifier, h.ListDonations))
	e.GET("/donations/{id}", RequireAuth(verifier, h.GetDonation))
	e.POST("/donations/{id}/confirm", RequireAuth(verifier, h.ConfirmDonation))
	e.PUT("/donations/{id}/proof", RequireAuth(verifier, h.AttachProof))
	e.GET("/banks", h.ListBanks)
}

func NewDonationHandler(donationService DonationService) *DonationHandler {
	return &DonationHandler{
		svc: donationService,
	}
}

type createDonationRequest struct {
	StreamingCode string `json:"streaming_code"`
	Amount        int64  `json:"amount"`
	BankCode      string `json:"bank_code"`

	ManualPayment *struct {
		BankName  string `json:"bank_name"`
		ProofData string `json:"proof_data"`
	} `json:"manual_payment"`
}

type confirmDonationRequest struct {
	Valid bool `json:"valid"`
}

type attachProofRequest struct {
	ProofData string `json:"proof_data"`
}

type donationListResponse struct {
	Items []*model.Donation `json:"items"`
	Total int64             `json:"total"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *DonationHandler) CreateDonation(ctx *xhttp.RequestCtx) {
	var req createDonationRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	p := model.DonationCreateRequest{
		StreamingCode: req.StreamingCode,
		UserID:        authUserID(ctx),
		Amount:        req.Amount,
		BankCode:      req.BankCode,
	}
	if req.ManualPayment != nil {
		p.ManualPayment = &model.ManualPayment{
			BankName:  req.ManualPayment.BankName,
			ProofData: req.ManualPayment.ProofData,
		}
	}
	donation, err := h.svc.Create(ctx, p)
	if err != nil {
		var gwErr *gateway.GatewayError
		if errors.As(err, &gwErr) {
			writeError(ctx, 502, gwErr.Error())
			return
		}
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, donation)
}

func (h *DonationHandler) GetDonation(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid donation id")
		return
	}
	donation, err := h.svc.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, donation)
}

func (h *DonationHandler) ListDonations(ctx *xhttp.RequestCtx) {
	var f model.DonationFilter

	if v := query(ctx, "streaming_code"); v != "" {
		f.StreamingCode = &v
	}
	if v := query(ctx, "user_id"); v != "" {
		if id, e := strconv.ParseInt(v, 10, 64); e == nil {
			f.UserID = &id
		}
	}
	if v := query(ctx, "status"); v != "" {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
			if parts[i] != "" {
				f.Statuses = append(f.Statuses, model.DonationStatus(parts[i]))
			}
		}
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}
	if strings.EqualFold(query(ctx, "order"), "desc") {
		f.Desc = true
	}

	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, donationListResponse{Items: items, Total: total})
}

func (h *DonationHandler) ConfirmDonation(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid donation id")
		return
	}
	var req confirmDonationRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	if req.Valid {
		err = h.svc.Confirm(ctx, id, authUserID(ctx))
	} else {
		err = h.svc.Reject(ctx, id, authUserID(ctx))
	}
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	donation, err := h.svc.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, donation)
}

func (h *DonationHandler) AttachProof(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid donation id")
		return
	}
	var req attachProofRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	donation, err := h.svc.AttachProof(ctx, id, authUserID(ctx), req.ProofData)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, donation)
}

func (h *DonationHandler) ListBanks(ctx *xhttp.RequestCtx) {
	writeJSON(ctx, 200, gateway.AvailableBanks())
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

func pathInt64(ctx *xhttp.RequestCtx, name string) (int64, error) {
	idStr, _ := ctx.UserValue(name).(string)
	return strconv.ParseInt(idStr, 10, 64)
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}
