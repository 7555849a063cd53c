package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ideahub/microservices/projects-service/cache"
	"ideahub/microservices/projects-service/events"
	"ideahub/microservices/projects-service/logging"
	"ideahub/microservices/projects-service/models"
	"ideahub/microservices/projects-service/storage"
	"ideahub/microservices/projects-service/store"
)

const deleteConfirmationTTL = 5 * time.Minute

// ImageFile is an uploaded file held in memory until it is stored.
type ImageFile struct {
	Filename string
	Data     []byte
}

// ProjectForm is the admin form. Tags and RequiredTalents hold the raw comma
// separated input.
type ProjectForm struct {
	Name             string
	Description      string
	JoinLink         string
	Tags             string
	RequiredTalents  string
	Phase            models.Phase
	Team             []models.TeamMember
	CoverImage       string
	Images           []string
	CoverImageFile   *ImageFile
	ImageFiles       []ImageFile
	FinancialHistory []models.FinancialRecord
}

type MemberOwnership struct {
	Name      string  `json:"name"`
	Shares    int     `json:"shares"`
	Ownership float64 `json:"ownership"`
	TeamShare float64 `json:"teamShare"`
}

type ProjectService struct {
	store  store.DocumentStore
	blobs  storage.BlobStore
	cache  cache.Cache
	events events.Publisher
	now    func() time.Time
}

// NewProjectService initializes a ProjectService over the given backends.
func NewProjectService(s store.DocumentStore, blobs storage.BlobStore, c cache.Cache, pub events.Publisher) *ProjectService {
	return &ProjectService{
		store:  s,
		blobs:  blobs,
		cache:  c,
		events: pub,
		now:    time.Now,
	}
}

// ListProjects returns every project in insertion order. Documents that
// cannot be decoded are skipped and logged.
func (s *ProjectService) ListProjects(ctx context.Context) ([]models.Project, error) {
	docs, err := s.store.ListAll(ctx, store.ProjectsCollection)
	if err != nil {
		logging.Logger.Errorf("Event ID: LIST_PROJECTS_FAILED, Description: Failed to fetch projects: %v", err)
		return nil, fmt.Errorf("list projects: %w", err)
	}

	projects := make([]models.Project, 0, len(docs))
	for _, doc := range docs {
		p, err := models.DecodeProject(doc)
		if err != nil {
			logging.Logger.Warnf("Event ID: PROJECT_DECODE_FAILED, Description: Skipping project %v: %v", doc[store.IDField], err)
			continue
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// GetProject fetches a single project by id.
func (s *ProjectService) GetProject(ctx context.Context, id string) (*models.Project, error) {
	doc, found, err := s.store.GetOne(ctx, store.ProjectsCollection, id)
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	if !found {
		return nil, ErrProjectNotFound
	}
	p, err := models.DecodeProject(doc)
	if err != nil {
		return nil, fmt.Errorf("decode project %s: %w", id, err)
	}
	return &p, nil
}

// SaveProject creates a project when editingID is empty and overwrites the
// whole document otherwise. New image files replace the stored ones; without
// files the submitted or existing URLs are kept.
func (s *ProjectService) SaveProject(ctx context.Context, editingID string, form ProjectForm) (*models.Project, error) {
	name := strings.TrimSpace(form.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrInvalidInput)
	}
	phase := form.Phase
	if phase == "" {
		phase = models.PhaseJustIdea
	}
	if !phase.IsValid() {
		return nil, fmt.Errorf("%w: unknown phase %q", ErrInvalidInput, phase)
	}
	for _, m := range form.Team {
		if m.Shares < 0 {
			return nil, fmt.Errorf("%w: shares of %q must not be negative", ErrInvalidInput, m.Name)
		}
	}
	for _, rec := range form.FinancialHistory {
		if rec.Amount < 0 {
			return nil, fmt.Errorf("%w: financial amounts must not be negative", ErrInvalidInput)
		}
	}

	now := s.now().UTC()
	project := models.Project{CreatedAt: now}
	if editingID != "" {
		existing, err := s.GetProject(ctx, editingID)
		if err != nil {
			return nil, err
		}
		project = *existing
	}

	coverURL, imageURLs, err := s.uploadImages(ctx, form.CoverImageFile, form.ImageFiles)
	if err != nil {
		logging.Logger.Errorf("Event ID: PROJECT_IMAGE_UPLOAD_FAILED, Description: Failed to upload images for %q: %v", name, err)
		return nil, err
	}
	switch {
	case form.CoverImageFile != nil:
		project.CoverImage = coverURL
	case form.CoverImage != "":
		project.CoverImage = form.CoverImage
	}
	switch {
	case len(form.ImageFiles) > 0:
		project.Images = imageURLs
	case form.Images != nil:
		project.Images = form.Images
	}

	history := make([]models.FinancialRecord, len(form.FinancialHistory))
	for i, rec := range form.FinancialHistory {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.Date.IsZero() {
			rec.Date = now
		}
		history[i] = rec
	}

	project.Name = name
	project.Description = form.Description
	project.JoinLink = form.JoinLink
	project.Tags = models.ParseList(form.Tags)
	project.RequiredTalents = models.ParseList(form.RequiredTalents)
	project.Phase = phase
	project.Team = form.Team
	project.FinancialHistory = history
	project.RecomputeTotals()
	project.UpdatedAt = now
	project.Normalize()

	doc, err := models.ToDocument(project)
	if err != nil {
		return nil, err
	}

	if editingID == "" {
		id, err := s.store.Create(ctx, store.ProjectsCollection, doc)
		if err != nil {
			logging.Logger.Errorf("Event ID: CREATE_PROJECT_FAILED, Description: Failed to create project %q: %v", name, err)
			return nil, fmt.Errorf("create project: %w", err)
		}
		project.ID = id
		logging.Logger.Infof("Event ID: PROJECT_CREATED, Description: Project %s created", id)
		publish(ctx, s.events, events.ProjectCreated, id, project)
		return &project, nil
	}

	if err := s.store.Update(ctx, store.ProjectsCollection, editingID, doc); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		logging.Logger.Errorf("Event ID: UPDATE_PROJECT_FAILED, Description: Failed to update project %s: %v", editingID, err)
		return nil, fmt.Errorf("update project %s: %w", editingID, err)
	}
	project.ID = editingID
	logging.Logger.Infof("Event ID: PROJECT_UPDATED, Description: Project %s updated", editingID)
	publish(ctx, s.events, events.ProjectUpdated, editingID, project)
	return &project, nil
}

// UploadImage stores a single image and returns its public URL.
func (s *ProjectService) UploadImage(ctx context.Context, file ImageFile) (string, error) {
	if len(file.Data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrInvalidInput)
	}
	url, err := s.blobs.Upload(ctx, storage.ImageKey(file.Filename, s.now()), file.Data)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", file.Filename, err)
	}
	return url, nil
}

// uploadImages uploads the cover and the additional images concurrently.
// The returned URLs keep the order of files.
func (s *ProjectService) uploadImages(ctx context.Context, cover *ImageFile, files []ImageFile) (string, []string, error) {
	var coverURL string
	urls := make([]string, len(files))

	g, gctx := errgroup.WithContext(ctx)
	if cover != nil {
		g.Go(func() error {
			url, err := s.UploadImage(gctx, *cover)
			if err != nil {
				return fmt.Errorf("cover image: %w", err)
			}
			coverURL = url
			return nil
		})
	}
	for i, f := range files {
		g.Go(func() error {
			url, err := s.UploadImage(gctx, f)
			if err != nil {
				return fmt.Errorf("image %d: %w", i+1, err)
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", nil, err
	}
	return coverURL, urls, nil
}

// RequestDelete starts the two-step delete and returns the confirmation
// token ConfirmDelete expects.
func (s *ProjectService) RequestDelete(ctx context.Context, id string) (string, error) {
	if _, err := s.GetProject(ctx, id); err != nil {
		return "", err
	}
	token := uuid.NewString()
	if err := s.cache.Set(ctx, deleteKey(token), id, deleteConfirmationTTL); err != nil {
		return "", fmt.Errorf("store delete confirmation: %w", err)
	}
	logging.Logger.Infof("Event ID: PROJECT_DELETE_REQUESTED, Description: Delete of project %s awaiting confirmation", id)
	return token, nil
}

// ConfirmDelete removes the project when token was issued for it. There is
// no undo.
func (s *ProjectService) ConfirmDelete(ctx context.Context, id, token string) error {
	if token == "" {
		return ErrConfirmationRequired
	}
	target, found, err := s.cache.Get(ctx, deleteKey(token))
	if err != nil {
		return fmt.Errorf("read delete confirmation: %w", err)
	}
	if !found || target != id {
		return ErrConfirmationRequired
	}

	if err := s.store.Remove(ctx, store.ProjectsCollection, id); err != nil {
		logging.Logger.Errorf("Event ID: DELETE_PROJECT_FAILED, Description: Failed to delete project %s: %v", id, err)
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	if err := s.cache.Delete(ctx, deleteKey(token)); err != nil {
		logging.Logger.Warnf("Event ID: DELETE_TOKEN_CLEANUP_FAILED, Description: %v", err)
	}
	logging.Logger.Infof("Event ID: PROJECT_DELETED, Description: Project %s deleted", id)
	publish(ctx, s.events, events.ProjectDeleted, id, nil)
	return nil
}

// AddComment appends a comment to the project. An empty author is stored as
// the anonymous user.
func (s *ProjectService) AddComment(ctx context.Context, projectID, author, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment content is required", ErrInvalidInput)
	}
	c := models.NewComment(uuid.NewString(), strings.TrimSpace(author), content, s.now().UTC())
	if err := s.push(ctx, projectID, "comments", c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ProjectService) AddSuggestedIdea(ctx context.Context, projectID, title, description string) (*models.SuggestedIdea, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: idea title is required", ErrInvalidInput)
	}
	now := s.now().UTC()
	idea := models.SuggestedIdea{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.push(ctx, projectID, "suggestedIdeas", idea); err != nil {
		return nil, err
	}
	return &idea, nil
}

func (s *ProjectService) push(ctx context.Context, projectID, field string, value interface{}) error {
	err := s.store.Mutate(ctx, store.ProjectsCollection, projectID, store.Mutation{
		Push: map[string][]interface{}{field: {value}},
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrProjectNotFound
	}
	if err != nil {
		return fmt.Errorf("append to %s of project %s: %w", field, projectID, err)
	}
	return nil
}

// AddFinancialRecord appends rec and adds its amount to the matching total
// in one atomic update.
func (s *ProjectService) AddFinancialRecord(ctx context.Context, projectID string, rec models.FinancialRecord) (*models.Project, error) {
	if rec.Amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}
	now := s.now().UTC()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Date.IsZero() {
		rec.Date = now
	}

	err := s.store.Mutate(ctx, store.ProjectsCollection, projectID, store.Mutation{
		Push: map[string][]interface{}{"financialHistory": {rec}},
		Inc:  map[string]interface{}{totalField(rec.IsProfit): rec.Amount},
		Set:  store.Document{"updatedAt": now},
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("add financial record to %s: %w", projectID, err)
	}
	return s.GetProject(ctx, projectID)
}

// RemoveFinancialRecord pulls the record and subtracts its amount. The
// update only applies while the record is still present, so a concurrent
// second removal cannot subtract twice.
func (s *ProjectService) RemoveFinancialRecord(ctx context.Context, projectID, recordID string) (*models.Project, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	var (
		rec   models.FinancialRecord
		found bool
	)
	for _, r := range project.FinancialHistory {
		if r.ID == recordID {
			rec, found = r, true
			break
		}
	}
	if !found {
		return nil, ErrFinancialRecordNotFound
	}

	match := store.ElementMatch{Key: "id", Value: recordID}
	err = s.store.Mutate(ctx, store.ProjectsCollection, projectID, store.Mutation{
		Require: &store.RequiredElement{Field: "financialHistory", ElementMatch: match},
		Pull:    map[string]store.ElementMatch{"financialHistory": match},
		Inc:     map[string]interface{}{totalField(rec.IsProfit): -rec.Amount},
		Set:     store.Document{"updatedAt": s.now().UTC()},
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrFinancialRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("remove financial record %s: %w", recordID, err)
	}
	return s.GetProject(ctx, projectID)
}

// TeamOwnership reports each member's ownership as shares over 100 next to
// the member's share of the team's total.
func (s *ProjectService) TeamOwnership(ctx context.Context, projectID string) ([]MemberOwnership, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]MemberOwnership, 0, len(project.Team))
	for _, m := range project.Team {
		out = append(out, MemberOwnership{
			Name:      m.Name,
			Shares:    m.Shares,
			Ownership: m.OwnershipFraction(),
			TeamShare: project.TeamShare(m),
		})
	}
	return out, nil
}

func totalField(isProfit bool) string {
	if isProfit {
		return "profit"
	}
	return "loss"
}

func deleteKey(token string) string {
	return "project:delete:" + token
}
