package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/clinic-dashboard/internal/cache"
	"github.com/jwalitptl/clinic-dashboard/internal/model"
	"github.com/jwalitptl/clinic-dashboard/internal/repository"
	"github.com/jwalitptl/clinic-dashboard/pkg/metrics"
)

const (
	DashboardRevenueDays = 10
	DefaultSummaryDays   = 14
)

type Service struct {
	repo    repository.ReportRepository
	cache   cache.Cache
	metrics *metrics.Metrics
	logger  *zerolog.Logger
}

// NewService wires the aggregation service. c, m and logger may be nil.
func NewService(repo repository.ReportRepository, c cache.Cache, m *metrics.Metrics, logger *zerolog.Logger) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{repo: repo, cache: c, metrics: m, logger: logger}
}

// Round2 rounds half away from zero to cents. Money is summed first and
// rounded once.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func cached[T any](ctx context.Context, s *Service, name, key string, compute func() (T, error)) (T, error) {
	var out T
	hit, err := s.cache.Get(ctx, key, &out)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Report cache read failed")
	}
	s.metrics.CacheResult(name, hit)
	if hit {
		return out, nil
	}

	start := time.Now()
	out, err = compute()
	s.metrics.ObserveReport(name, start)
	if err != nil {
		return out, err
	}

	if err := s.cache.Set(ctx, key, out); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Report cache write failed")
	}
	return out, nil
}

// RevenueByDay returns revenue for at most limit days, oldest first.
func (s *Service) RevenueByDay(ctx context.Context, limit int) (model.RevenueSeries, error) {
	return cached(ctx, s, "revenue_by_day", fmt.Sprintf("revenue_by_day:%d", limit), func() (model.RevenueSeries, error) {
		rows, err := s.repo.RevenueByDay(ctx, limit)
		if err != nil {
			return model.RevenueSeries{}, err
		}
		series := model.RevenueSeries{
			Labels: make([]string, 0, len(rows)),
			Values: make([]float64, 0, len(rows)),
		}
		for _, r := range rows {
			series.Labels = append(series.Labels, r.Day)
			series.Values = append(series.Values, Round2(r.Revenue))
		}
		return series, nil
	})
}

// KPIs serves the totals from the cache. The next appointment is always
// read fresh since it moves with the clock, not with writes.
func (s *Service) KPIs(ctx context.Context) (model.KPIs, error) {
	k, err := cached(ctx, s, "kpis", "kpis", func() (model.KPIs, error) {
		var k model.KPIs

		sum, n, err := s.repo.InvoiceTotals(ctx)
		if err != nil {
			return k, err
		}
		k.TotalRevenue = Round2(sum)
		if n > 0 {
			k.AvgInvoice = Round2(sum / float64(n))
		}

		k.TotalAppts, err = s.repo.AppointmentCount(ctx)
		return k, err
	})
	if err != nil {
		return k, err
	}

	if k.NextAppt, err = s.repo.NextAppointment(ctx); err != nil {
		return k, err
	}
	return k, nil
}

func (s *Service) StatusMix(ctx context.Context) (model.StatusMix, error) {
	return cached(ctx, s, "status_mix", "status_mix", func() (model.StatusMix, error) {
		rows, err := s.repo.StatusCounts(ctx)
		if err != nil {
			return model.StatusMix{}, err
		}
		mix := model.StatusMix{
			Labels: make([]string, 0, len(rows)),
			Counts: make([]int, 0, len(rows)),
		}
		for _, r := range rows {
			mix.Labels = append(mix.Labels, r.Status)
			mix.Counts = append(mix.Counts, r.Count)
		}
		return mix, nil
	})
}

// DailySummary returns at most days per-day rollups, oldest first.
func (s *Service) DailySummary(ctx context.Context, days int) ([]model.DailySummary, error) {
	return cached(ctx, s, "daily_summary", fmt.Sprintf("daily_summary:%d", days), func() ([]model.DailySummary, error) {
		rows, err := s.repo.DailySummary(ctx, days)
		if err != nil {
			return nil, err
		}
		out := make([]model.DailySummary, 0, len(rows))
		for _, r := range rows {
			out = append(out, model.DailySummary{Day: r.Day, Appts: r.Appts, Revenue: Round2(r.Revenue)})
		}
		return out, nil
	})
}

// Dashboard collects the three home page reports.
func (s *Service) Dashboard(ctx context.Context) (*model.Dashboard, error) {
	revenue, err := s.RevenueByDay(ctx, DashboardRevenueDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load revenue: %w", err)
	}
	kpis, err := s.KPIs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load kpis: %w", err)
	}
	mix, err := s.StatusMix(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load status mix: %w", err)
	}
	return &model.Dashboard{Revenue: revenue, KPIs: kpis, StatusMix: mix}, nil
}

// Invalidate drops cached results after appointment data changes.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.Flush(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Report cache flush failed")
	}
}
