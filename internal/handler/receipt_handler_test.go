package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/solventa/solventa-backend/internal/domain"
)

func TestCreateReceiptEndpoint_Complete(t *testing.T) {
	env := newHandlerEnv()
	env.addActiveLoan("3000")
	env.addActiveLoan("2500")

	reqBody := `{
		"leadId": 1,
		"expectedAmount": "600.00",
		"cashPaidAmount": "400.00",
		"bankPaidAmount": "200.00",
		"receivedAt": "2026-03-09",
		"payments": [
			{"loanId": 1, "amount": "300.00", "comission": "8.00", "paymentMethod": "CASH"},
			{"loanId": 2, "amount": "300.00", "comission": "8.00", "paymentMethod": "MONEY_TRANSFER"}
		]
	}`
	c, rec := env.newJSONContext(http.MethodPost, "/api/v1/lead-payments", reqBody)

	if err := env.receiptHandler.CreateReceipt(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rec.Code)
	}

	var response ReceiptResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.PaymentStatus != "COMPLETE" {
		t.Errorf("Expected status COMPLETE, got %s", response.PaymentStatus)
	}
	if response.FalcoAmount != "0.00" {
		t.Errorf("Expected falco '0.00', got %s", response.FalcoAmount)
	}

	// Collected money lands once per batch
	if !env.cashFund.Amount.Equal(dec("10400")) {
		t.Errorf("Expected cash fund 10400, got %s", env.cashFund.Amount)
	}
	if !env.bank.Amount.Equal(dec("5200")) {
		t.Errorf("Expected bank 5200, got %s", env.bank.Amount)
	}
}

func TestCreateReceiptEndpoint_Shortfall(t *testing.T) {
	env := newHandlerEnv()
	env.addActiveLoan("3000")

	reqBody := `{
		"leadId": 1,
		"expectedAmount": "600.00",
		"cashPaidAmount": "350.00",
		"bankPaidAmount": "",
		"receivedAt": "2026-03-09",
		"payments": [
			{"loanId": 1, "amount": "350.00", "comission": "", "paymentMethod": "CASH"}
		]
	}`
	c, rec := env.newJSONContext(http.MethodPost, "/api/v1/lead-payments", reqBody)

	if err := env.receiptHandler.CreateReceipt(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rec.Code)
	}

	var response ReceiptResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.PaymentStatus != "PARTIAL" {
		t.Errorf("Expected status PARTIAL, got %s", response.PaymentStatus)
	}
	if response.FalcoAmount != "250.00" {
		t.Errorf("Expected falco '250.00', got %s", response.FalcoAmount)
	}
}

func TestCreateReceiptEndpoint_MissingLead(t *testing.T) {
	env := newHandlerEnv()

	reqBody := `{
		"leadId": 999,
		"expectedAmount": "600.00",
		"cashPaidAmount": "600.00",
		"receivedAt": "2026-03-09",
		"payments": []
	}`
	c, rec := env.newJSONContext(http.MethodPost, "/api/v1/lead-payments", reqBody)

	if err := env.receiptHandler.CreateReceipt(c); err != nil {
		t.Fatalf("Expected no error (error should be in response), got %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestRegisterCompensationEndpoint_Success(t *testing.T) {
	env := newHandlerEnv()
	env.addActiveLoan("3000")

	// Create a receipt with a 250 shortfall first
	createBody := `{
		"leadId": 1,
		"expectedAmount": "600.00",
		"cashPaidAmount": "350.00",
		"receivedAt": "2026-03-09",
		"payments": [
			{"loanId": 1, "amount": "350.00", "comission": "", "paymentMethod": "CASH"}
		]
	}`
	c, rec := env.newJSONContext(http.MethodPost, "/api/v1/lead-payments", createBody)
	if err := env.receiptHandler.CreateReceipt(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	var receipt ReceiptResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &receipt); err != nil {
		t.Fatalf("Failed to unmarshal receipt: %v", err)
	}

	compBody := `{"amount": "250.00", "receivedAt": "2026-03-16"}`
	c, rec = env.newJSONContext(http.MethodPost, "/api/v1/lead-payments/1/compensations", compBody)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := env.receiptHandler.RegisterCompensation(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rec.Code)
	}

	var response CompensationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.Amount != "250.00" {
		t.Errorf("Expected amount '250.00', got %s", response.Amount)
	}

	// The receipt settles once the full shortfall is covered
	stored, err := env.receipts.GetByID(receipt.ID)
	if err != nil {
		t.Fatalf("Expected receipt to exist, got %v", err)
	}
	if stored.PaymentStatus != domain.PaymentStatusComplete {
		t.Errorf("Expected receipt status COMPLETE, got %s", stored.PaymentStatus)
	}
}

func TestRegisterCompensationEndpoint_MissingReceipt(t *testing.T) {
	env := newHandlerEnv()

	compBody := `{"amount": "100.00", "receivedAt": "2026-03-16"}`
	c, rec := env.newJSONContext(http.MethodPost, "/api/v1/lead-payments/999/compensations", compBody)
	c.SetParamNames("id")
	c.SetParamValues("999")

	if err := env.receiptHandler.RegisterCompensation(c); err != nil {
		t.Fatalf("Expected no error (error should be in response), got %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}
