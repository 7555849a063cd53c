package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideahub/microservices/projects-service/models"
	"ideahub/microservices/projects-service/store"
)

func TestAnalytics_TrackAndGet(t *testing.T) {
	f := newProjectFixture(t)
	svc := NewAnalyticsService(f.store, f.svc)
	ctx := context.Background()

	a, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Analytics{}, a)

	require.NoError(t, svc.Track(ctx, "views"))
	require.NoError(t, svc.Track(ctx, "views"))
	require.NoError(t, svc.Track(ctx, "clicks"))
	require.NoError(t, svc.Track(ctx, "active-users"))
	assert.ErrorIs(t, svc.Track(ctx, "likes"), ErrInvalidInput)

	a, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.TotalViews)
	assert.Equal(t, int64(1), a.TotalClicks)
	assert.Equal(t, int64(1), a.ActiveUsers)
}

func TestAnalytics_GetFallsBackToFirstDocument(t *testing.T) {
	f := newProjectFixture(t)
	svc := NewAnalyticsService(f.store, f.svc)
	ctx := context.Background()
	_, err := f.store.Create(ctx, store.AnalyticsCollection, store.Document{"totalViews": 42, "totalClicks": 7, "activeUsers": 3})
	require.NoError(t, err)

	a, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), a.TotalViews)
	assert.Equal(t, int64(7), a.TotalClicks)
	assert.Equal(t, int64(3), a.ActiveUsers)
}

func TestAnalytics_FoldersAndSummary(t *testing.T) {
	f := newProjectFixture(t)
	svc := NewAnalyticsService(f.store, f.svc)
	ctx := context.Background()

	forms := []ProjectForm{
		{Name: "A", Phase: models.PhaseJustIdea},
		{Name: "B", Phase: models.PhaseGoToMarket, FinancialHistory: []models.FinancialRecord{{Amount: 10, IsProfit: true}}},
		{Name: "C", Phase: models.PhaseScaling, FinancialHistory: []models.FinancialRecord{{Amount: 4}}},
		{Name: "D", Phase: models.PhaseUnicorn},
		{Name: "E", Phase: models.PhaseClosed},
	}
	for _, form := range forms {
		_, err := f.svc.SaveProject(ctx, "", form)
		require.NoError(t, err)
	}

	folders, err := svc.Folders(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Folders{Ideas: 1, Startups: 2, Unicorns: 1}, folders)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Projects)
	assert.Equal(t, 1, summary.ByPhase[models.PhaseGoToMarket])
	assert.Equal(t, 0, summary.ByPhase[models.PhaseValidation])
	assert.Len(t, summary.ByPhase, len(models.Phases))
	assert.Equal(t, 10.0, summary.TotalProfit)
	assert.Equal(t, 4.0, summary.TotalLoss)
	assert.Equal(t, folders, summary.Folders)
}
