package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideahub/microservices/projects-service/cache"
	"ideahub/microservices/projects-service/events"
	"ideahub/microservices/projects-service/models"
	"ideahub/microservices/projects-service/storage"
	"ideahub/microservices/projects-service/store"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type projectFixture struct {
	svc    *ProjectService
	store  *store.MemoryStore
	blobs  *storage.MemoryStore
	events *events.Recorder
}

func newProjectFixture(t *testing.T) projectFixture {
	t.Helper()
	f := projectFixture{
		store:  store.NewMemoryStore(),
		blobs:  storage.NewMemoryStore("https://cdn.test"),
		events: &events.Recorder{},
	}
	f.svc = NewProjectService(f.store, f.blobs, cache.NewMemoryCache(), f.events)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

type failingBlobs struct{}

func (failingBlobs) Upload(context.Context, string, []byte) (string, error) {
	return "", errors.New("bucket unavailable")
}

func TestSaveProject_Create(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()

	p, err := f.svc.SaveProject(ctx, "", ProjectForm{
		Name:            "  Solar Kiosk ",
		Tags:            " energy, ,retail,energy ",
		RequiredTalents: "Go developer,  Designer",
		Team:            []models.TeamMember{{Name: "Ana", Email: "ana@test.io", Shares: 60}},
		CoverImageFile:  &ImageFile{Filename: "cover.png", Data: []byte("c")},
		ImageFiles: []ImageFile{
			{Filename: "one.png", Data: []byte("1")},
			{Filename: "two.png", Data: []byte("2")},
		},
		FinancialHistory: []models.FinancialRecord{
			{Amount: 100, IsProfit: true},
			{Amount: 40},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)

	assert.Equal(t, "Solar Kiosk", p.Name)
	assert.Equal(t, models.PhaseJustIdea, p.Phase)
	assert.Equal(t, []string{"energy", "retail", "energy"}, p.Tags)
	assert.Equal(t, []string{"Go developer", "Designer"}, p.RequiredTalents)
	assert.Equal(t, 100.0, p.Profit)
	assert.Equal(t, 40.0, p.Loss)
	assert.Empty(t, p.Comments)
	assert.Empty(t, p.SuggestedIdeas)

	require.Len(t, p.Images, 2)
	assert.True(t, strings.HasSuffix(p.CoverImage, "_cover.png"))
	assert.True(t, strings.HasSuffix(p.Images[0], "_one.png"))
	assert.True(t, strings.HasSuffix(p.Images[1], "_two.png"))
	assert.Equal(t, 3, f.blobs.Len())
	for _, rec := range p.FinancialHistory {
		assert.NotEmpty(t, rec.ID)
		assert.False(t, rec.Date.IsZero())
	}

	stored, err := f.svc.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Images, stored.Images)
	assert.Equal(t, []string{events.ProjectCreated}, f.events.Types())
}

func TestSaveProject_EditKeepsImagesAndComments(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()

	created, err := f.svc.SaveProject(ctx, "", ProjectForm{
		Name:       "Old",
		CoverImage: "https://cdn.test/cover.png",
		Images:     []string{"https://cdn.test/a.png"},
	})
	require.NoError(t, err)
	_, err = f.svc.AddComment(ctx, created.ID, "Mia", "Nice")
	require.NoError(t, err)

	updated, err := f.svc.SaveProject(ctx, created.ID, ProjectForm{
		Name:  "New",
		Phase: models.PhaseUnicorn,
	})
	require.NoError(t, err)

	got, err := f.svc.GetProject(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
	assert.Equal(t, models.PhaseUnicorn, got.Phase)
	assert.Equal(t, "https://cdn.test/cover.png", got.CoverImage)
	assert.Equal(t, []string{"https://cdn.test/a.png"}, got.Images)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "Nice", got.Comments[0].Content)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, []string{events.ProjectCreated, events.ProjectUpdated}, f.events.Types())
}

func TestSaveProject_EditMissing(t *testing.T) {
	f := newProjectFixture(t)
	_, err := f.svc.SaveProject(context.Background(), "nope", ProjectForm{Name: "X"})
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestSaveProject_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		form ProjectForm
	}{
		{"missing name", ProjectForm{Name: "   "}},
		{"unknown phase", ProjectForm{Name: "A", Phase: "Moonshot"}},
		{"negative amount", ProjectForm{Name: "A", FinancialHistory: []models.FinancialRecord{{Amount: -1}}}},
		{"negative shares", ProjectForm{Name: "A", Team: []models.TeamMember{{Name: "B", Shares: -5}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newProjectFixture(t)
			_, err := f.svc.SaveProject(context.Background(), "", tt.form)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestSaveProject_UploadFailureWritesNothing(t *testing.T) {
	f := newProjectFixture(t)
	f.svc.blobs = failingBlobs{}
	ctx := context.Background()

	_, err := f.svc.SaveProject(ctx, "", ProjectForm{
		Name:       "A",
		ImageFiles: []ImageFile{{Filename: "a.png", Data: []byte("a")}},
	})
	require.Error(t, err)

	projects, err := f.svc.ListProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestListProjects_DefaultsMissingFields(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()
	_, err := f.store.Create(ctx, store.ProjectsCollection, store.Document{"name": "Legacy", "team": nil})
	require.NoError(t, err)

	projects, err := f.svc.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	p := projects[0]
	assert.Equal(t, models.PhaseJustIdea, p.Phase)
	assert.NotNil(t, p.Team)
	assert.NotNil(t, p.Comments)
	assert.NotNil(t, p.SuggestedIdeas)
	assert.NotNil(t, p.Tags)
	assert.NotNil(t, p.RequiredTalents)
	assert.NotNil(t, p.Images)
	assert.NotNil(t, p.FinancialHistory)
}

func TestGetProject_NotFound(t *testing.T) {
	f := newProjectFixture(t)
	_, err := f.svc.GetProject(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestDeleteProject_TwoStep(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()
	a, err := f.svc.SaveProject(ctx, "", ProjectForm{Name: "A"})
	require.NoError(t, err)
	b, err := f.svc.SaveProject(ctx, "", ProjectForm{Name: "B", Tags: "keep", Team: []models.TeamMember{{Name: "Ana", Email: "ana@test.io", Shares: 10}}})
	require.NoError(t, err)
	before, err := f.svc.GetProject(ctx, b.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.ConfirmDelete(ctx, a.ID, ""), ErrConfirmationRequired)

	token, err := f.svc.RequestDelete(ctx, a.ID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.ErrorIs(t, f.svc.ConfirmDelete(ctx, b.ID, token), ErrConfirmationRequired)
	require.NoError(t, f.svc.ConfirmDelete(ctx, a.ID, token))

	_, err = f.svc.GetProject(ctx, a.ID)
	assert.ErrorIs(t, err, ErrProjectNotFound)
	remaining, err := f.svc.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, *before, remaining[0], "other projects are untouched")

	assert.ErrorIs(t, f.svc.ConfirmDelete(ctx, a.ID, token), ErrConfirmationRequired)
	assert.Contains(t, f.events.Types(), events.ProjectDeleted)

	_, err = f.svc.RequestDelete(ctx, "missing")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestAddComment(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()
	p, err := f.svc.SaveProject(ctx, "", ProjectForm{Name: "A"})
	require.NoError(t, err)

	c, err := f.svc.AddComment(ctx, p.ID, "", "  Great idea  ")
	require.NoError(t, err)
	assert.Equal(t, models.AnonymousAuthor, c.Author)
	assert.Equal(t, "Great idea", c.Content)
	assert.NotEmpty(t, c.ID)

	_, err = f.svc.AddComment(ctx, p.ID, "Ana", "second")
	require.NoError(t, err)

	got, err := f.svc.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, "Great idea", got.Comments[0].Content)
	assert.Equal(t, "Ana", got.Comments[1].Author)

	_, err = f.svc.AddComment(ctx, p.ID, "Ana", "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.AddComment(ctx, "missing", "Ana", "hi")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestAddSuggestedIdea(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()
	p, err := f.svc.SaveProject(ctx, "", ProjectForm{Name: "A"})
	require.NoError(t, err)

	idea, err := f.svc.AddSuggestedIdea(ctx, p.ID, "Referral program", "Invite friends")
	require.NoError(t, err)
	assert.NotEmpty(t, idea.ID)

	got, err := f.svc.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.SuggestedIdeas, 1)
	assert.Equal(t, "Referral program", got.SuggestedIdeas[0].Title)

	_, err = f.svc.AddSuggestedIdea(ctx, p.ID, "", "x")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFinancialRecords(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()
	p, err := f.svc.SaveProject(ctx, "", ProjectForm{Name: "A"})
	require.NoError(t, err)

	p, err = f.svc.AddFinancialRecord(ctx, p.ID, models.FinancialRecord{ID: "r1", Amount: 250.5, IsProfit: true})
	require.NoError(t, err)
	p, err = f.svc.AddFinancialRecord(ctx, p.ID, models.FinancialRecord{ID: "r2", Amount: 80})
	require.NoError(t, err)
	assert.Equal(t, 250.5, p.Profit)
	assert.Equal(t, 80.0, p.Loss)
	assert.Len(t, p.FinancialHistory, 2)

	p, err = f.svc.RemoveFinancialRecord(ctx, p.ID, "r1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.Profit)
	assert.Equal(t, 80.0, p.Loss)
	require.Len(t, p.FinancialHistory, 1)
	assert.Equal(t, "r2", p.FinancialHistory[0].ID)

	_, err = f.svc.RemoveFinancialRecord(ctx, p.ID, "r1")
	assert.ErrorIs(t, err, ErrFinancialRecordNotFound)

	_, err = f.svc.AddFinancialRecord(ctx, p.ID, models.FinancialRecord{Amount: -3})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.AddFinancialRecord(ctx, "missing", models.FinancialRecord{Amount: 3})
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestFinancialRecords_ConcurrentAdds(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()
	p, err := f.svc.SaveProject(ctx, "", ProjectForm{Name: "A"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.AddFinancialRecord(ctx, p.ID, models.FinancialRecord{Amount: 5, IsProfit: true})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := f.svc.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Profit)
	assert.Len(t, got.FinancialHistory, 20)
	assert.True(t, got.TotalsInSync())
}

func TestTeamOwnership(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()
	p, err := f.svc.SaveProject(ctx, "", ProjectForm{
		Name: "A",
		Team: []models.TeamMember{
			{Name: "Ana", Email: "ana@test.io", Shares: 30},
			{Name: "Ben", Email: "ben@test.io", Shares: 10},
		},
	})
	require.NoError(t, err)

	owners, err := f.svc.TeamOwnership(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, owners, 2)
	assert.InDelta(t, 0.30, owners[0].Ownership, 1e-9)
	assert.InDelta(t, 0.75, owners[0].TeamShare, 1e-9)
	assert.InDelta(t, 0.25, owners[1].TeamShare, 1e-9)
}

func TestUploadImage(t *testing.T) {
	f := newProjectFixture(t)
	url, err := f.svc.UploadImage(context.Background(), ImageFile{Filename: "logo.png", Data: []byte("x")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.test/projects/"))

	_, err = f.svc.UploadImage(context.Background(), ImageFile{Filename: "empty.png"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
