package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
)

// Collection names used by the service.
const (
	ProjectsCollection    = "projects"
	SuggestionsCollection = "projectSuggestions"
	AnalyticsCollection   = "analytics"
	AdminCollection       = "jadmin"

	AdminCredentialsID = "jauth"
)

// IDField is the key under which every returned document carries its id.
const IDField = "_id"

var ErrNotFound = errors.New("document not found")

// Document is a raw stored document.
type Document = bson.M

// Query is an equality filter with an optional descending sort on one field.
// Documents that tie on the sort field keep insertion order.
type Query struct {
	Where    Document
	SortDesc string
}

// ElementMatch selects array elements whose Key equals Value.
type ElementMatch struct {
	Key   string
	Value interface{}
}

// Mutation is applied to a single document atomically.
type Mutation struct {
	Set  Document
	Push map[string][]interface{}
	Pull map[string]ElementMatch
	Inc  map[string]interface{}
	// Require, when set, makes the mutation apply only if the named array
	// field contains a matching element.
	Require *RequiredElement
	// Upsert creates the document when it does not exist yet.
	Upsert bool
}

type RequiredElement struct {
	Field string
	ElementMatch
}

func (m Mutation) IsEmpty() bool {
	return len(m.Set) == 0 && len(m.Push) == 0 && len(m.Pull) == 0 && len(m.Inc) == 0
}

// DocumentStore is collection scoped CRUD over a document database.
type DocumentStore interface {
	ListAll(ctx context.Context, collection string) ([]Document, error)
	Find(ctx context.Context, collection string, q Query) ([]Document, error)
	// GetOne reports absence through found rather than an error.
	GetOne(ctx context.Context, collection, id string) (doc Document, found bool, err error)
	Create(ctx context.Context, collection string, fields Document) (string, error)
	// CreateWithID inserts or replaces the document stored under id.
	CreateWithID(ctx context.Context, collection, id string, fields Document) error
	// Update replaces the named fields and fails with ErrNotFound when the
	// document does not exist.
	Update(ctx context.Context, collection, id string, fields Document) error
	// Remove is idempotent.
	Remove(ctx context.Context, collection, id string) error
	Mutate(ctx context.Context, collection, id string, m Mutation) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
