package utils

import "math"

// AlignToLot floors shares down to a multiple of lotSize.
func AlignToLot(shares int64, lotSize int64) int64 {
	if lotSize <= 0 {
		return shares
	}

	if shares <= 0 {
		return 0
	}

	return (shares / lotSize) * lotSize
}

// MaxAffordableShares calculates the largest lot-aligned share count that the
// given capital fraction can buy at the given price.
func MaxAffordableShares(cash float64, price float64, maxPositionSize float64, lotSize int64) int64 {
	if price <= 0 || cash <= 0 || maxPositionSize <= 0 {
		return 0
	}

	affordable := cash * maxPositionSize
	rawShares := int64(math.Floor(affordable / price))

	return AlignToLot(rawShares, lotSize)
}
