package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrLoantypeNotFound = errors.New("loan type not found")

// Loantype defines the interest rate and term of a loan product.
// Rate is fractional: 0.40 means the borrower repays principal plus 40%.
type Loantype struct {
	ID           int32           `json:"id"`
	Name         string          `json:"name"`
	Rate         decimal.Decimal `json:"rate"`
	WeekDuration int32           `json:"weekDuration"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type LoantypeRepository interface {
	GetByID(id int32) (*Loantype, error)
}
