package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/platform/cache"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type fakeRepo struct {
	summaryCalls int
	bookRows     []BookRow
}

func (f *fakeRepo) PortfolioSummary(ctx context.Context, tenantID int64) (PortfolioSummary, error) {
	f.summaryCalls++
	return PortfolioSummary{
		ContractsTotal:       3,
		ContractsActive:      2,
		ContractsCompleted:   1,
		ContractsOutstanding: decimal.NewFromInt(4500),
		GeneratedAt:          time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeRepo) InstallmentBook(ctx context.Context, tenantID int64, contractID *int64) ([]BookRow, error) {
	return f.bookRows, nil
}

var testIdentity = shared.Identity{TenantID: 7, UserID: 3}

func newCachedService(t *testing.T) (*Service, *fakeRepo, *cache.Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := cache.New(client, time.Minute)
	repo := &fakeRepo{}
	return NewService(repo, c, nil), repo, c
}

func TestSummaryCachesResult(t *testing.T) {
	svc, repo, _ := newCachedService(t)

	first, err := svc.Summary(context.Background(), testIdentity)
	require.NoError(t, err)
	require.Equal(t, 3, first.ContractsTotal)
	require.Equal(t, 1, repo.summaryCalls)

	second, err := svc.Summary(context.Background(), testIdentity)
	require.NoError(t, err)
	require.Equal(t, 1, repo.summaryCalls)
	require.True(t, second.ContractsOutstanding.Equal(first.ContractsOutstanding))
}

func TestSummaryBumpInvalidates(t *testing.T) {
	svc, repo, c := newCachedService(t)

	_, err := svc.Summary(context.Background(), testIdentity)
	require.NoError(t, err)
	require.Equal(t, 1, repo.summaryCalls)

	require.NoError(t, c.Bump(context.Background()))

	_, err = svc.Summary(context.Background(), testIdentity)
	require.NoError(t, err)
	require.Equal(t, 2, repo.summaryCalls)
}

func TestSummaryWithoutCache(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nil, nil)

	_, err := svc.Summary(context.Background(), testIdentity)
	require.NoError(t, err)
	_, err = svc.Summary(context.Background(), testIdentity)
	require.NoError(t, err)
	require.Equal(t, 2, repo.summaryCalls)
}
