package services

import (
	"context"
	"fmt"

	"ideahub/microservices/projects-service/models"
	"ideahub/microservices/projects-service/store"
)

// AnalyticsDocumentID names the single counters document.
const AnalyticsDocumentID = "site"

// Metrics accepted by Track, mapped to their counter fields.
var metricFields = map[string]string{
	"views":        "totalViews",
	"clicks":       "totalClicks",
	"active-users": "activeUsers",
}

type AnalyticsService struct {
	store    store.DocumentStore
	projects *ProjectService
}

func NewAnalyticsService(s store.DocumentStore, projects *ProjectService) *AnalyticsService {
	return &AnalyticsService{store: s, projects: projects}
}

// Get returns the site counters, or zeros when nothing was tracked yet.
// Older deployments kept the counters in an arbitrary first document.
func (s *AnalyticsService) Get(ctx context.Context) (models.Analytics, error) {
	doc, found, err := s.store.GetOne(ctx, store.AnalyticsCollection, AnalyticsDocumentID)
	if err != nil {
		return models.Analytics{}, fmt.Errorf("get analytics: %w", err)
	}
	if !found {
		docs, err := s.store.ListAll(ctx, store.AnalyticsCollection)
		if err != nil {
			return models.Analytics{}, fmt.Errorf("list analytics: %w", err)
		}
		if len(docs) == 0 {
			return models.Analytics{}, nil
		}
		doc = docs[0]
	}
	var a models.Analytics
	if err := models.Decode(doc, &a); err != nil {
		return models.Analytics{}, err
	}
	return a, nil
}

// Track atomically adds one to the counter behind metric.
func (s *AnalyticsService) Track(ctx context.Context, metric string) error {
	field, ok := metricFields[metric]
	if !ok {
		return fmt.Errorf("%w: unknown metric %q", ErrInvalidInput, metric)
	}
	err := s.store.Mutate(ctx, store.AnalyticsCollection, AnalyticsDocumentID, store.Mutation{
		Inc:    map[string]interface{}{field: int64(1)},
		Upsert: true,
	})
	if err != nil {
		return fmt.Errorf("track %s: %w", metric, err)
	}
	return nil
}

// Folders counts projects per home page folder.
func (s *AnalyticsService) Folders(ctx context.Context) (models.Folders, error) {
	projects, err := s.projects.ListProjects(ctx)
	if err != nil {
		return models.Folders{}, err
	}
	return models.CountFolders(projects), nil
}

// Summary aggregates every project by phase along with the financial totals.
func (s *AnalyticsService) Summary(ctx context.Context) (models.Summary, error) {
	projects, err := s.projects.ListProjects(ctx)
	if err != nil {
		return models.Summary{}, err
	}
	summary := models.Summary{
		Projects: len(projects),
		ByPhase:  make(map[models.Phase]int, len(models.Phases)),
		Folders:  models.CountFolders(projects),
	}
	for _, phase := range models.Phases {
		summary.ByPhase[phase] = 0
	}
	for _, p := range projects {
		summary.ByPhase[p.Phase]++
		summary.TotalProfit += p.Profit
		summary.TotalLoss += p.Loss
	}
	return summary, nil
}
