package models

type MonthlySales struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

type TopProduct struct {
	ProductID    string  `json:"productId"`
	ProductName  string  `json:"productName"`
	TotalSold    int     `json:"totalSold"`
	TotalRevenue float64 `json:"totalRevenue"`
}

type SalesStats struct {
	TotalSales   float64        `json:"totalSales"`
	TotalOrders  int            `json:"totalOrders"`
	SalesByMonth []MonthlySales `json:"salesByMonth"`
	TopProducts  []TopProduct   `json:"topProducts"`
}
