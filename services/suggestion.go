package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ideahub/microservices/projects-service/events"
	"ideahub/microservices/projects-service/logging"
	"ideahub/microservices/projects-service/models"
	"ideahub/microservices/projects-service/store"
)

type SuggestionForm struct {
	ProjectSuggestedName string
	IdeaDescription      string
	SuggesterName        string
	WhatsappPhoneNumber  string
	WantToWork           bool
	// IsPublic defaults to true when nil.
	IsPublic *bool
}

type SuggestionService struct {
	store  store.DocumentStore
	events events.Publisher
	now    func() time.Time
}

func NewSuggestionService(s store.DocumentStore, pub events.Publisher) *SuggestionService {
	return &SuggestionService{store: s, events: pub, now: time.Now}
}

// ListPublic returns public suggestions, most upvoted first. Ties keep
// insertion order.
func (s *SuggestionService) ListPublic(ctx context.Context) ([]models.ProjectSuggestion, error) {
	docs, err := s.store.Find(ctx, store.SuggestionsCollection, store.Query{
		Where:    store.Document{"isPublic": true},
		SortDesc: "upvotes",
	})
	if err != nil {
		logging.Logger.Errorf("Event ID: LIST_SUGGESTIONS_FAILED, Description: Failed to fetch suggestions: %v", err)
		return nil, fmt.Errorf("list suggestions: %w", err)
	}

	out := make([]models.ProjectSuggestion, 0, len(docs))
	for _, doc := range docs {
		sg, err := models.DecodeSuggestion(doc)
		if err != nil {
			logging.Logger.Warnf("Event ID: SUGGESTION_DECODE_FAILED, Description: Skipping suggestion %v: %v", doc[store.IDField], err)
			continue
		}
		out = append(out, sg)
	}
	return out, nil
}

func (s *SuggestionService) GetSuggestion(ctx context.Context, id string) (*models.ProjectSuggestion, error) {
	doc, found, err := s.store.GetOne(ctx, store.SuggestionsCollection, id)
	if err != nil {
		return nil, fmt.Errorf("get suggestion %s: %w", id, err)
	}
	if !found {
		return nil, ErrSuggestionNotFound
	}
	sg, err := models.DecodeSuggestion(doc)
	if err != nil {
		return nil, fmt.Errorf("decode suggestion %s: %w", id, err)
	}
	return &sg, nil
}

// CreateSuggestion stores a new suggestion with zeroed votes and no comments.
func (s *SuggestionService) CreateSuggestion(ctx context.Context, form SuggestionForm) (*models.ProjectSuggestion, error) {
	name := strings.TrimSpace(form.ProjectSuggestedName)
	description := strings.TrimSpace(form.IdeaDescription)
	suggester := strings.TrimSpace(form.SuggesterName)
	if name == "" || description == "" || suggester == "" {
		return nil, fmt.Errorf("%w: name, description and suggester are required", ErrInvalidInput)
	}
	isPublic := true
	if form.IsPublic != nil {
		isPublic = *form.IsPublic
	}

	now := s.now().UTC()
	sg := models.ProjectSuggestion{
		ProjectSuggestedName: name,
		IdeaDescription:      description,
		SuggesterName:        suggester,
		WhatsappPhoneNumber:  strings.TrimSpace(form.WhatsappPhoneNumber),
		WantToWork:           form.WantToWork,
		IsPublic:             isPublic,
		Comments:             []models.Comment{},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	doc, err := models.ToDocument(sg)
	if err != nil {
		return nil, err
	}
	id, err := s.store.Create(ctx, store.SuggestionsCollection, doc)
	if err != nil {
		logging.Logger.Errorf("Event ID: CREATE_SUGGESTION_FAILED, Description: Failed to create suggestion %q: %v", name, err)
		return nil, fmt.Errorf("create suggestion: %w", err)
	}
	sg.ID = id
	logging.Logger.Infof("Event ID: SUGGESTION_CREATED, Description: Suggestion %s created", id)
	publish(ctx, s.events, events.SuggestionCreated, id, sg)
	return &sg, nil
}

// Vote adds exactly one to the chosen counter with a single atomic update.
func (s *SuggestionService) Vote(ctx context.Context, id string, vote models.VoteType) (*models.ProjectSuggestion, error) {
	field, ok := vote.Field()
	if !ok {
		return nil, fmt.Errorf("%w: unknown vote %q", ErrInvalidInput, vote)
	}
	err := s.store.Mutate(ctx, store.SuggestionsCollection, id, store.Mutation{
		Inc: map[string]interface{}{field: int64(1)},
		Set: store.Document{"updatedAt": s.now().UTC()},
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSuggestionNotFound
	}
	if err != nil {
		logging.Logger.Errorf("Event ID: VOTE_FAILED, Description: Failed to record %s vote on %s: %v", vote, id, err)
		return nil, fmt.Errorf("vote on %s: %w", id, err)
	}
	publish(ctx, s.events, events.SuggestionVoted, id, map[string]string{"vote": string(vote)})
	return s.GetSuggestion(ctx, id)
}

// AddComment appends a comment. Author and content are both required.
func (s *SuggestionService) AddComment(ctx context.Context, id, author, content string) (*models.Comment, error) {
	author = strings.TrimSpace(author)
	content = strings.TrimSpace(content)
	if author == "" || content == "" {
		return nil, fmt.Errorf("%w: author and content are required", ErrInvalidInput)
	}
	now := s.now().UTC()
	c := models.NewComment(uuid.NewString(), author, content, now)
	err := s.store.Mutate(ctx, store.SuggestionsCollection, id, store.Mutation{
		Push: map[string][]interface{}{"comments": {c}},
		Set:  store.Document{"updatedAt": now},
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSuggestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("comment on suggestion %s: %w", id, err)
	}
	return &c, nil
}
