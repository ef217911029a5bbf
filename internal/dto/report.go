package dto

import "time"

// TopProduct is a product ranked by revenue within a report window.
type TopProduct struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	Revenue   int64  `json:"revenue"`
}

// SalesReport summarises completed orders created inside [Start, End).
type SalesReport struct {
	Type        string       `json:"type"`
	Start       time.Time    `json:"start"`
	End         time.Time    `json:"end"`
	TotalSales  int64        `json:"total_sales"`
	TotalOrders int64        `json:"total_orders"`
	TopProducts []TopProduct `json:"top_products"`
}

// PeriodTotals holds the sales figures of one calendar month.
type PeriodTotals struct {
	Month       string `json:"month"`
	TotalSales  int64  `json:"total_sales"`
	TotalOrders int64  `json:"total_orders"`
}

// MonthlySalesReport compares the current month against the previous one.
type MonthlySalesReport struct {
	CurrentMonth  PeriodTotals `json:"current_month"`
	PreviousMonth PeriodTotals `json:"previous_month"`
	SalesGrowth   float64      `json:"sales_growth"`
	OrdersGrowth  float64      `json:"orders_growth"`
}
