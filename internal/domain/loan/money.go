package loan

import (
	"math/big"

	"landq-backend/internal/domain/price"
)

// BasisPoints is 100%.
const BasisPoints = 10_000

// AmountOwedAt returns principal plus flat interest, truncated:
// principal + principal*bp/10000.
func AmountOwedAt(principal, bp int64) (int64, error) {
	if principal <= 0 {
		return 0, ErrInvalidAmount
	}
	interest, err := mulDiv(principal, bp, BasisPoints)
	if err != nil {
		return 0, err
	}
	total := new(big.Int).Add(big.NewInt(principal), big.NewInt(interest))
	if !total.IsInt64() {
		return 0, ErrAmountOverflow
	}
	return total.Int64(), nil
}

// ToReference converts a collateral-currency amount with r, truncated.
func ToReference(amount int64, r price.Rate) (int64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return mulDiv(amount, r.Numerator, r.Scale)
}

func mulDiv(a, b, c int64) (int64, error) {
	v := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	v.Quo(v, big.NewInt(c))
	if !v.IsInt64() {
		return 0, ErrAmountOverflow
	}
	return v.Int64(), nil
}
