package report

import (
	"fmt"
	"sort"
	"time"

	"storefront/backend/internal/domain"
)

// TopProductLimit caps the best-seller list in a sales report.
const TopProductLimit = 10

// Generate builds a sales report over orders created in [from, to], both
// inclusive. Every order in range contributes regardless of status, and
// revenue is GST-inclusive; the status breakdown is where cancellations show.
func Generate(orders []domain.Order, from, to time.Time) (domain.SalesReport, error) {
	if to.Before(from) {
		return domain.SalesReport{}, fmt.Errorf("%w: report period end before start", domain.ErrInvalidInput)
	}

	rep := domain.SalesReport{
		PeriodStart:    from,
		PeriodEnd:      to,
		OrdersByStatus: make(map[string]int),
	}
	sales := make(map[string]*domain.ProductSales)

	for _, order := range orders {
		if order.CreatedAt.Before(from) || order.CreatedAt.After(to) {
			continue
		}
		rep.TotalOrders++
		rep.OrdersByStatus[order.Status]++
		rep.TotalRevenueCents += order.TotalCents()
		rep.TotalGSTCents += order.GSTCents()
		for _, item := range order.Items {
			entry, ok := sales[item.ProductID]
			if !ok {
				entry = &domain.ProductSales{ProductID: item.ProductID, Name: item.Name}
				sales[item.ProductID] = entry
			}
			entry.QuantitySold += item.Quantity
			entry.RevenueCents += item.LineTotalCents
		}
	}

	rep.TopProducts = make([]domain.ProductSales, 0, len(sales))
	for _, entry := range sales {
		rep.TopProducts = append(rep.TopProducts, *entry)
	}
	sort.Slice(rep.TopProducts, func(i, j int) bool {
		if rep.TopProducts[i].RevenueCents != rep.TopProducts[j].RevenueCents {
			return rep.TopProducts[i].RevenueCents > rep.TopProducts[j].RevenueCents
		}
		return rep.TopProducts[i].ProductID < rep.TopProducts[j].ProductID
	})
	if len(rep.TopProducts) > TopProductLimit {
		rep.TopProducts = rep.TopProducts[:TopProductLimit]
	}
	return rep, nil
}
