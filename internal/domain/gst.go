package domain

import "math"

// GSTRate is the flat goods-and-services tax applied to every subtotal.
const GSTRate = 0.10

// GSTCents returns the GST owed on an amount, rounded to the nearest cent.
func GSTCents(amountCents int64) int64 {
	return int64(math.Round(float64(amountCents) * GSTRate))
}
