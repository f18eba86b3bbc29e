package sqlstore

import (
	"context"
	"fmt"

	"github.com/jwalitptl/clinic-dashboard/internal/model"
	"github.com/jwalitptl/clinic-dashboard/internal/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepository)(nil)

type InvoiceRepository struct {
	BaseRepository
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *model.Invoice) error {
	query := `
		INSERT INTO invoices (appt_id, subtotal, discount, tax, total, status)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING inv_id
	`
	err := r.get(ctx, "invoice.create", &inv.ID, query,
		inv.ApptID, inv.Subtotal, inv.Discount, inv.Tax, inv.Total, inv.Status)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, "invoices")
}
