package model

type InvoiceStatus string

const (
	InvoiceStatusPaid   InvoiceStatus = "paid"
	InvoiceStatusUnpaid InvoiceStatus = "unpaid"
)

type Invoice struct {
	ID       int64         `db:"inv_id" json:"inv_id"`
	ApptID   int64         `db:"appt_id" json:"appt_id"`
	Subtotal float64       `db:"subtotal" json:"subtotal"`
	Discount float64       `db:"discount" json:"discount"`
	Tax      float64       `db:"tax" json:"tax"`
	Total    float64       `db:"total" json:"total"`
	Status   InvoiceStatus `db:"status" json:"status"`
}
