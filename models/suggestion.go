package models

import "time"

type ProjectSuggestion struct {
	ID                   string    `bson:"_id,omitempty" json:"id"`
	ProjectSuggestedName string    `bson:"projectSuggestedName" json:"projectSuggestedName"`
	IdeaDescription      string    `bson:"ideaDescription" json:"ideaDescription"`
	SuggesterName        string    `bson:"suggesterName" json:"suggesterName"`
	WhatsappPhoneNumber  string    `bson:"whatsappPhoneNumber,omitempty" json:"whatsappPhoneNumber,omitempty"`
	WantToWork           bool      `bson:"wantToWork" json:"wantToWork"`
	IsPublic             bool      `bson:"isPublic" json:"isPublic"`
	Upvotes              int64     `bson:"upvotes" json:"upvotes"`
	Downvotes            int64     `bson:"downvotes" json:"downvotes"`
	Comments             []Comment `bson:"comments" json:"comments"`
	CreatedAt            time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (s *ProjectSuggestion) Normalize() {
	if s.Comments == nil {
		s.Comments = []Comment{}
	}
	for i := range s.Comments {
		s.Comments[i].Normalize()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}
}

type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

// Field returns the counter a vote increments.
func (v VoteType) Field() (string, bool) {
	switch v {
	case VoteUp:
		return "upvotes", true
	case VoteDown:
		return "downvotes", true
	}
	return "", false
}
