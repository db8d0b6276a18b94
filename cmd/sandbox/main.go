package main

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Transaction is one simulated virtual-account charge held in memory.
type Transaction struct {
	TransactionID     string    `json:"transaction_id"`
	OrderID           string    `json:"order_id"`
	GrossAmount       int64     `json:"gross_amount"`
	PaymentType       string    `json:"payment_type"`
	Bank              string    `json:"bank"`
	TransactionStatus string    `json:"transaction_status"`
	VANumber          string    `json:"va_number"`
	BillerCode        string    `json:"biller_code"`
	BillKey           string    `json:"bill_key"`
	CreatedAt         time.Time `json:"created_at"`
}

// ChargeRequest mirrors the Core API charge body for the three VA payment
// types: bank_transfer, echannel and permata.
type ChargeRequest struct {
	PaymentType        string `json:"payment_type" binding:"required"`
	TransactionDetails struct {
		OrderID     string `json:"order_id" binding:"required"`
		GrossAmount int64  `json:"gross_amount" binding:"required"`
	} `json:"transaction_details" binding:"required"`
	BankTransfer struct {
		Bank string `json:"bank"`
	} `json:"bank_transfer"`
}

// SandboxGateway simulates the Midtrans Core API: it issues VA charges,
// answers status polls and pushes signed notifications to a callback URL.
type SandboxGateway struct {
	mu           sync.RWMutex
	transactions map[string]*Transaction // by transaction_id
	orders       map[string]string       // order_id -> transaction_id

	serverKey   string
	callbackURL string
	settleRate  float64
	settleDelay time.Duration
	rng         *rand.Rand
}

func NewSandboxGateway(serverKey, callbackURL string, settleRate float64, settleDelay time.Duration) *SandboxGateway {
	return &SandboxGateway{
		transactions: make(map[string]*Transaction),
		orders:       make(map[string]string),
		serverKey:    serverKey,
		callbackURL:  callbackURL,
		settleRate:   settleRate,
		settleDelay:  settleDelay,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (g *SandboxGateway) charge(req *ChargeRequest) *Transaction {
	tx := &Transaction{
		TransactionID:     uuid.New().String(),
		OrderID:           req.TransactionDetails.OrderID,
		GrossAmount:       req.TransactionDetails.GrossAmount,
		PaymentType:       req.PaymentType,
		TransactionStatus: "pending",
		CreatedAt:         time.Now(),
	}

	switch req.PaymentType {
	case "echannel":
		tx.Bank = "mandiri"
		tx.BillerCode = g.randomDigits(5)
		tx.BillKey = g.randomDigits(11)
	case "permata":
		tx.Bank = "permata"
		tx.VANumber = g.randomDigits(16)
	default:
		tx.Bank = req.BankTransfer.Bank
		tx.VANumber = g.randomDigits(12)
	}

	g.mu.Lock()
	g.transactions[tx.TransactionID] = tx
	g.orders[tx.OrderID] = tx.TransactionID
	g.mu.Unlock()

	return tx
}

func (g *SandboxGateway) lookup(id string) *Transaction {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if tx, ok := g.transactions[id]; ok {
		return tx
	}
	if txID, ok := g.orders[id]; ok {
		return g.transactions[txID]
	}
	return nil
}

func (g *SandboxGateway) setStatus(id, status string) *Transaction {
	g.mu.Lock()
	defer g.mu.Unlock()
	txID := id
	if mapped, ok := g.orders[id]; ok {
		txID = mapped
	}
	tx, ok := g.transactions[txID]
	if !ok {
		return nil
	}
	tx.TransactionStatus = status
	return tx
}

// scheduleSettlement flips the transaction after the configured delay and
// notifies the callback URL, the way the real sandbox settles test payments.
func (g *SandboxGateway) scheduleSettlement(tx *Transaction) {
	if g.callbackURL == "" || g.settleDelay <= 0 {
		return
	}
	go func() {
		time.Sleep(g.settleDelay)

		status := "settlement"
		if g.rng.Float64() >= g.settleRate {
			status = "expire"
		}
		if updated := g.setStatus(tx.TransactionID, status); updated != nil {
			g.sendNotification(updated)
		}
	}()
}

func (g *SandboxGateway) signature(orderID, statusCode, grossAmount string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + g.serverKey))
	return hex.EncodeToString(sum[:])
}

func (g *SandboxGateway) sendNotification(tx *Transaction) {
	statusCode := "200"
	grossAmount := fmt.Sprintf("%d.00", tx.GrossAmount)

	payload := map[string]string{
		"order_id":           tx.OrderID,
		"status_code":        statusCode,
		"gross_amount":       grossAmount,
		"signature_key":      g.signature(tx.OrderID, statusCode, grossAmount),
		"transaction_id":     tx.TransactionID,
		"transaction_status": tx.TransactionStatus,
	}
	body, _ := json.Marshal(payload)

	resp, err := http.Post(g.callbackURL, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Error().
			Str("order_id", tx.OrderID).
			Str("callback_url", g.callbackURL).
			Err(err).
			Msg("Notification delivery failed")
		return
	}
	defer resp.Body.Close()

	log.Info().
		Str("order_id", tx.OrderID).
		Str("transaction_status", tx.TransactionStatus).
		Int("callback_status", resp.StatusCode).
		Msg("Notification delivered")
}

func (g *SandboxGateway) randomDigits(n int) string {
	digits := make([]byte, n)
	for i := range digits {
		digits[i] = byte('0' + g.rng.Intn(10))
	}
	return string(digits)
}

// Handler holds the sandbox gateway and routes
type Handler struct {
	gateway *SandboxGateway
}

func NewHandler(gateway *SandboxGateway) *Handler {
	return &Handler{gateway: gateway}
}

// Charge handles POST /v2/charge
func (h *Handler) Charge(c *gin.Context) {
	var req ChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{
			"status_code":    "400",
			"status_message": "Invalid request: " + err.Error(),
		})
		return
	}

	tx := h.gateway.charge(&req)
	h.gateway.scheduleSettlement(tx)

	log.Info().
		Str("order_id", tx.OrderID).
		Str("transaction_id", tx.TransactionID).
		Str("payment_type", tx.PaymentType).
		Str("bank", tx.Bank).
		Msg("Charge created")

	response := gin.H{
		"status_code":        "201",
		"status_message":     "Success, Bank Transfer transaction is created",
		"transaction_id":     tx.TransactionID,
		"order_id":           tx.OrderID,
		"gross_amount":       fmt.Sprintf("%d.00", tx.GrossAmount),
		"payment_type":       tx.PaymentType,
		"transaction_time":   tx.CreatedAt.Format("2006-01-02 15:04:05"),
		"transaction_status": tx.TransactionStatus,
		"fraud_status":       "accept",
	}
	switch tx.PaymentType {
	case "echannel":
		response["biller_code"] = tx.BillerCode
		response["bill_key"] = tx.BillKey
	case "permata":
		response["permata_va_number"] = tx.VANumber
	default:
		response["va_numbers"] = []gin.H{{"bank": tx.Bank, "va_number": tx.VANumber}}
	}

	c.JSON(http.StatusCreated, response)
}

// GetStatus handles GET /v2/:id/status
func (h *Handler) GetStatus(c *gin.Context) {
	id := c.Param("id")

	tx := h.gateway.lookup(id)
	if tx == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"status_code":    "404",
			"status_message": "Transaction doesn't exist",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status_code":        "200",
		"transaction_id":     tx.TransactionID,
		"order_id":           tx.OrderID,
		"gross_amount":       fmt.Sprintf("%d.00", tx.GrossAmount),
		"transaction_status": tx.TransactionStatus,
		"fraud_status":       "accept",
		"transaction_time":   tx.CreatedAt.Format("2006-01-02 15:04:05"),
	})
}

// SetStatus handles PUT /sandbox/transactions/:id/status, a test hook to
// drive a transaction to settlement, expire, cancel or deny by hand.
func (h *Handler) SetStatus(c *gin.Context) {
	var req struct {
		TransactionStatus string `json:"transaction_status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	tx := h.gateway.setStatus(c.Param("id"), req.TransactionStatus)
	if tx == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
		return
	}

	log.Info().
		Str("order_id", tx.OrderID).
		Str("transaction_status", tx.TransactionStatus).
		Msg("Transaction status forced")

	if h.gateway.callbackURL != "" {
		go h.gateway.sendNotification(tx)
	}

	c.JSON(http.StatusOK, tx)
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
	})
}

// SetupRouter configures all routes
func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	// Add request logging middleware
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Msg("Request processed")
	})

	// Core API surface the gateway client talks to
	router.POST("/v2/charge", handler.Charge)
	router.GET("/v2/:id/status", handler.GetStatus)

	// Sandbox-only controls
	router.PUT("/sandbox/transactions/:id/status", handler.SetStatus)
	router.GET("/health", handler.HealthCheck)

	return router
}

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Get configuration from environment
	port := getEnv("PORT", "8091")
	serverKey := getEnv("SERVER_KEY", "SB-Mid-server-sandbox")
	callbackURL := getEnv("CALLBACK_URL", "")
	settleRate := getEnvFloat("SETTLE_RATE", 1)
	settleDelay := getEnvDuration("SETTLE_DELAY", 5*time.Second)

	log.Info().
		Str("port", port).
		Str("callback_url", callbackURL).
		Float64("settle_rate", settleRate).
		Dur("settle_delay", settleDelay).
		Msg("Starting Midtrans sandbox")

	gateway := NewSandboxGateway(serverKey, callbackURL, settleRate, settleDelay)
	handler := NewHandler(gateway)
	router := SetupRouter(handler)

	// Setup HTTP server
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
