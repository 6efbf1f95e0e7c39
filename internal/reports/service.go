package reports

import (
	"context"
	"log/slog"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/meridian-erp/meridian-erp/internal/platform/cache"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Service serves portfolio summaries and exports. Summaries are cached in
// Redis under versioned keys and concurrent cold reads collapse through
// singleflight so the aggregate queries run once per tenant.
type Service struct {
	repo   Repository
	cache  *cache.Cache
	sf     singleflight.Group
	logger *slog.Logger
}

func NewService(repo Repository, summaryCache *cache.Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: summaryCache, logger: logger}
}

func (s *Service) Summary(ctx context.Context, id shared.Identity) (PortfolioSummary, error) {
	key, err := s.cache.BuildKey(ctx, "reports", "summary", strconv.FormatInt(id.TenantID, 10))
	if err != nil {
		return PortfolioSummary{}, err
	}

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		var summary PortfolioSummary
		err := s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (any, error) {
			return s.repo.PortfolioSummary(ctx, id.TenantID)
		})
		return summary, err
	})
	if err != nil {
		return PortfolioSummary{}, err
	}
	return v.(PortfolioSummary), nil
}

// InstallmentBook builds the xlsx workbook for the tenant's contract
// installments, optionally narrowed to one contract.
func (s *Service) InstallmentBook(ctx context.Context, id shared.Identity, contractID *int64) ([]byte, error) {
	rows, err := s.repo.InstallmentBook(ctx, id.TenantID, contractID)
	if err != nil {
		return nil, err
	}
	return buildInstallmentBook(rows)
}
