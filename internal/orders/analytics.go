package orders

import (
	"context"
	"sort"

	"electrocart_back_end/internal/apperr"
	"electrocart_back_end/internal/models"
)

// TopProductsLimit nombre de produits renvoyés dans topProducts
const TopProductsLimit = 10

// SalesStats agrège les commandes payées: total, ventes par mois (YYYY-MM croissant)
// et meilleurs produits par quantité vendue.
func (s *Service) SalesStats(ctx context.Context) (*models.SalesStats, error) {
	all, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, apperr.Internal("Failed to compute analytics", err)
	}
	return ComputeSalesStats(all), nil
}

func ComputeSalesStats(all []*models.Order) *models.SalesStats {
	stats := &models.SalesStats{
		SalesByMonth: []models.MonthlySales{},
		TopProducts:  []models.TopProduct{},
	}

	months := map[string]*models.MonthlySales{}
	products := map[string]*models.TopProduct{}
	var order []string

	for _, o := range all {
		if !o.IsPaid {
			continue
		}
		stats.TotalSales += o.Total
		stats.TotalOrders++

		key := o.CreatedAt.UTC().Format("2006-01")
		m, ok := months[key]
		if !ok {
			m = &models.MonthlySales{Month: key}
			months[key] = m
		}
		m.Total += o.Total
		m.Count++

		for _, it := range o.Items {
			tp, ok := products[it.ProductID]
			if !ok {
				tp = &models.TopProduct{ProductID: it.ProductID, ProductName: it.Name}
				products[it.ProductID] = tp
				order = append(order, it.ProductID)
			}
			tp.TotalSold += it.Quantity
			tp.TotalRevenue += float64(it.Quantity) * it.Price
		}
	}

	for _, m := range months {
		stats.SalesByMonth = append(stats.SalesByMonth, *m)
	}
	sort.Slice(stats.SalesByMonth, func(i, j int) bool {
		return stats.SalesByMonth[i].Month < stats.SalesByMonth[j].Month
	})

	for _, id := range order {
		stats.TopProducts = append(stats.TopProducts, *products[id])
	}
	// tri stable: à quantité égale, l'ordre de première vente est conservé
	sort.SliceStable(stats.TopProducts, func(i, j int) bool {
		return stats.TopProducts[i].TotalSold > stats.TopProducts[j].TotalSold
	})
	if len(stats.TopProducts) > TopProductsLimit {
		stats.TopProducts = stats.TopProducts[:TopProductsLimit]
	}
	return stats
}
