package handler

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestCreateLoanEndpoint_Success(t *testing.T) {
	env := newHandlerEnv()

	reqBody := `{
		"borrowerId": 1,
		"leadId": 1,
		"loantypeId": 1,
		"requestedAmount": "3000.00",
		"amountGived": "3000.00",
		"comissionAmount": "60.00",
		"signDate": "2026-03-02"
	}`
	c, rec := env.newJSONContext(http.MethodPost, "/api/v1/loans", reqBody)

	if err := env.loanHandler.CreateLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rec.Code)
	}

	var response LoanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.TotalDebtAcquired != "4200.00" {
		t.Errorf("Expected total debt '4200.00', got %s", response.TotalDebtAcquired)
	}
	if response.ExpectedWeeklyPayment != "300.00" {
		t.Errorf("Expected weekly payment '300.00', got %s", response.ExpectedWeeklyPayment)
	}
	if response.Status != "ACTIVE" {
		t.Errorf("Expected status ACTIVE, got %s", response.Status)
	}

	// Disbursement plus comission leaves the cash fund
	if !env.cashFund.Amount.Equal(dec("6940")) {
		t.Errorf("Expected cash fund 6940, got %s", env.cashFund.Amount)
	}
}

func TestCreateLoanEndpoint_InvalidAmount(t *testing.T) {
	env := newHandlerEnv()

	reqBody := `{
		"borrowerId": 1,
		"leadId": 1,
		"loantypeId": 1,
		"requestedAmount": "not-a-number",
		"amountGived": "3000.00",
		"signDate": "2026-03-02"
	}`
	c, rec := env.newJSONContext(http.MethodPost, "/api/v1/loans", reqBody)

	if err := env.loanHandler.CreateLoan(c); err != nil {
		t.Fatalf("Expected no error (error should be in response), got %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestCreateLoanEndpoint_MissingLead(t *testing.T) {
	env := newHandlerEnv()

	reqBody := `{
		"borrowerId": 1,
		"leadId": 999,
		"loantypeId": 1,
		"requestedAmount": "3000.00",
		"amountGived": "3000.00",
		"signDate": "2026-03-02"
	}`
	c, rec := env.newJSONContext(http.MethodPost, "/api/v1/loans", reqBody)

	if err := env.loanHandler.CreateLoan(c); err != nil {
		t.Fatalf("Expected no error (error should be in response), got %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestGetLoanEndpoint_Success(t *testing.T) {
	env := newHandlerEnv()
	loan := env.addActiveLoan("3000")

	c, rec := env.newJSONContext(http.MethodGet, "/api/v1/loans/1", "")
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := env.loanHandler.GetLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response LoanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.ID != loan.ID {
		t.Errorf("Expected loan %d, got %d", loan.ID, response.ID)
	}
}

func TestGetLoanEndpoint_NotFound(t *testing.T) {
	env := newHandlerEnv()

	c, rec := env.newJSONContext(http.MethodGet, "/api/v1/loans/999", "")
	c.SetParamNames("id")
	c.SetParamValues("999")

	if err := env.loanHandler.GetLoan(c); err != nil {
		t.Fatalf("Expected no error (error should be in response), got %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestGetLoansByLeadEndpoint_Success(t *testing.T) {
	env := newHandlerEnv()
	env.addActiveLoan("3000")
	env.addActiveLoan("2500")

	c, rec := env.newJSONContext(http.MethodGet, "/api/v1/leads/1/loans", "")
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := env.loanHandler.GetLoansByLead(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response []LoanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if len(response) != 2 {
		t.Errorf("Expected 2 loans, got %d", len(response))
	}
}

func TestDeleteLoanEndpoint_NotFound(t *testing.T) {
	env := newHandlerEnv()

	c, rec := env.newJSONContext(http.MethodDelete, "/api/v1/loans/999", "")
	c.SetParamNames("id")
	c.SetParamValues("999")

	if err := env.loanHandler.DeleteLoan(c); err != nil {
		t.Fatalf("Expected no error (error should be in response), got %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestRecomputeMetricsEndpoint(t *testing.T) {
	env := newHandlerEnv()
	env.addActiveLoan("3000")
	env.addActiveLoan("2500")

	c, rec := env.newJSONContext(http.MethodPost, "/api/v1/loans/recompute-metrics", "")

	if err := env.loanHandler.RecomputeMetrics(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response["recomputed"] != 2 {
		t.Errorf("Expected 2 recomputed loans, got %d", response["recomputed"])
	}
}
