package handler

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestCreateAccountEndpoint_Success(t *testing.T) {
	env := newHandlerEnv()

	reqBody := `{
		"routeId": 7,
		"name": "Caja chica ruta 7",
		"type": "OFFICE_CASH_FUND",
		"amount": "500.00"
	}`
	c, rec := env.newJSONContext(http.MethodPost, "/api/v1/accounts", reqBody)

	if err := env.accountHandler.CreateAccount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rec.Code)
	}

	var response AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.Name != "Caja chica ruta 7" {
		t.Errorf("Expected name 'Caja chica ruta 7', got %s", response.Name)
	}
	if response.Amount != "500.00" {
		t.Errorf("Expected amount '500.00', got %s", response.Amount)
	}
}

func TestCreateAccountEndpoint_InvalidType(t *testing.T) {
	env := newHandlerEnv()

	reqBody := `{
		"routeId": 7,
		"name": "Alcancia",
		"type": "PIGGY_BANK",
		"amount": "0"
	}`
	c, rec := env.newJSONContext(http.MethodPost, "/api/v1/accounts", reqBody)

	if err := env.accountHandler.CreateAccount(c); err != nil {
		t.Fatalf("Expected no error (error should be in response), got %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestGetAccountsEndpoint(t *testing.T) {
	env := newHandlerEnv()

	c, rec := env.newJSONContext(http.MethodGet, "/api/v1/accounts", "")

	if err := env.accountHandler.GetAccounts(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response []AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	// The fixture seeds the route's cash fund and bank account
	if len(response) != 2 {
		t.Errorf("Expected 2 accounts, got %d", len(response))
	}
}

func TestVerifyBalanceEndpoint(t *testing.T) {
	env := newHandlerEnv()

	c, rec := env.newJSONContext(http.MethodGet, "/api/v1/accounts/1/verify-balance", "")
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := env.accountHandler.VerifyBalance(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response BalanceVerificationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	// Seeded opening balance with no transaction history shows up as drift
	if response.StoredBalance != "10000.00" {
		t.Errorf("Expected stored balance '10000.00', got %s", response.StoredBalance)
	}
	if response.Drift != "10000.00" {
		t.Errorf("Expected drift '10000.00', got %s", response.Drift)
	}
}

func TestVerifyBalanceEndpoint_NotFound(t *testing.T) {
	env := newHandlerEnv()

	c, rec := env.newJSONContext(http.MethodGet, "/api/v1/accounts/999/verify-balance", "")
	c.SetParamNames("id")
	c.SetParamValues("999")

	if err := env.accountHandler.VerifyBalance(c); err != nil {
		t.Fatalf("Expected no error (error should be in response), got %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}
