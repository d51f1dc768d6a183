package service

import "github.com/shopspring/decimal"

// PaymentAllocation is the split of a single payment between capital return
// and profit (interest).
type PaymentAllocation struct {
	ReturnToCapital decimal.Decimal
	ProfitAmount    decimal.Decimal
}

// AllocatePayment splits one payment into capital return and profit given the
// loan's totals and how much has already been paid.
//
// The profit share of each peso paid is totalProfit/totalAmountToPay, so a
// sequence of payments summing to totalAmountToPay reconciles back to the
// loan's total profit. Two edge cases:
//   - debt already satisfied: the whole payment is capital return, no profit
//   - payment overshoots the remaining debt: profit is capped at the share of
//     what was still owed, the excess is pure capital return
//
// Inputs are not validated; callers guard against negative amounts upstream.
func AllocatePayment(paymentAmount, totalProfit, totalAmountToPay, requestedAmount, amountAlreadyPaid decimal.Decimal) PaymentAllocation {
	remaining := totalAmountToPay.Sub(amountAlreadyPaid)
	if remaining.LessThanOrEqual(decimal.Zero) {
		return PaymentAllocation{
			ReturnToCapital: paymentAmount.Round(2),
			ProfitAmount:    decimal.Zero,
		}
	}

	profitRatio := totalProfit.Div(totalAmountToPay)

	var profit decimal.Decimal
	if paymentAmount.GreaterThan(remaining) {
		profit = remaining.Mul(profitRatio)
	} else {
		profit = paymentAmount.Mul(profitRatio)
	}
	profit = profit.Round(2)

	return PaymentAllocation{
		ReturnToCapital: paymentAmount.Sub(profit).Round(2),
		ProfitAmount:    profit,
	}
}

// FlatPaymentProfit is the per-payment attribution formula stored on income
// transactions: amount * rate / weekDuration. It ignores amortization order
// and is NOT the authoritative pending-balance math, which always comes from
// raw payment sums on the loan snapshot. Kept as a distinct metric for the
// transaction-level reports that read it.
func FlatPaymentProfit(amount, rate decimal.Decimal, weekDuration int32) decimal.Decimal {
	if weekDuration <= 0 {
		return decimal.Zero
	}
	return amount.Mul(rate).Div(decimal.NewFromInt32(weekDuration)).Round(2)
}

// PendingProfit estimates the unpaid profit on a loan as the profit share of
// its pending balance. Used to carry unpaid interest into a renewal.
func PendingProfit(profitAmount, totalDebtAcquired, pendingAmount decimal.Decimal) decimal.Decimal {
	if totalDebtAcquired.LessThanOrEqual(decimal.Zero) || pendingAmount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return profitAmount.Mul(pendingAmount.Div(totalDebtAcquired)).Round(2)
}
