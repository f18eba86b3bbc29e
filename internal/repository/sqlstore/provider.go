package sqlstore

import (
	"context"
	"fmt"

	"github.com/jwalitptl/clinic-dashboard/internal/model"
	"github.com/jwalitptl/clinic-dashboard/internal/repository"
)

var _ repository.ProviderRepository = (*ProviderRepository)(nil)

type ProviderRepository struct {
	BaseRepository
}

func (r *ProviderRepository) List(ctx context.Context) ([]*model.Provider, error) {
	query := `
		SELECT provider_id, name, COALESCE(specialty, '') AS specialty, COALESCE(room, '') AS room
		FROM providers
		ORDER BY provider_id
	`
	var providers []*model.Provider
	if err := r.selectAll(ctx, "provider.list", &providers, query); err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	return providers, nil
}

func (r *ProviderRepository) Create(ctx context.Context, p *model.Provider) error {
	query := `INSERT INTO providers (name, specialty, room) VALUES (?, ?, ?) RETURNING provider_id`
	if err := r.get(ctx, "provider.create", &p.ID, query, p.Name, p.Specialty, p.Room); err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}
	return nil
}

func (r *ProviderRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, "providers")
}
