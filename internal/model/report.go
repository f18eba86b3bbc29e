package model

// RevenueSeries is revenue per calendar day as two parallel sequences,
// the shape the dashboard chart consumes.
type RevenueSeries struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

type KPIs struct {
	TotalRevenue float64 `json:"total_revenue"`
	TotalAppts   int     `json:"total_appts"`
	AvgInvoice   float64 `json:"avg_invoice"`
	// NextAppt is the start of the soonest appointment not in the past.
	NextAppt *string `json:"next_appt"`
}

type StatusMix struct {
	Labels []string `json:"labels"`
	Counts []int    `json:"counts"`
}

type DailySummary struct {
	Day     string  `db:"day" json:"day"`
	Appts   int     `db:"appts" json:"appts"`
	Revenue float64 `db:"revenue" json:"revenue"`
}

// Dashboard bundles everything the home page renders.
type Dashboard struct {
	Revenue   RevenueSeries `json:"revenue"`
	KPIs      KPIs          `json:"kpis"`
	StatusMix StatusMix     `json:"status_mix"`
}
