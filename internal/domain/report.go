package domain

import "time"

// ProductSales aggregates one product's performance inside a report period.
type ProductSales struct {
	ProductID    string `json:"productId"`
	Name         string `json:"name"`
	QuantitySold int    `json:"quantitySold"`
	RevenueCents int64  `json:"revenueCents"`
}

// SalesReport summarizes the orders created inside [PeriodStart, PeriodEnd].
// Revenue and GST exclude cancelled orders.
type SalesReport struct {
	PeriodStart       time.Time      `json:"periodStart"`
	PeriodEnd         time.Time      `json:"periodEnd"`
	TotalOrders       int            `json:"totalOrders"`
	TotalRevenueCents int64          `json:"totalRevenueCents"`
	TotalGSTCents     int64          `json:"totalGstCents"`
	OrdersByStatus    map[string]int `json:"ordersByStatus"`
	TopProducts       []ProductSales `json:"topProducts"`
}
