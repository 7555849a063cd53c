package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore stores ids as ObjectID hex strings so that fixed ids such as
// jadmin/jauth live next to generated ones, and sorting on _id keeps
// insertion order.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return &MongoStore{client: client, db: client.Database(dbName)}, nil
}

// EnsureIndexes creates the index backing the public suggestion listing.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "isPublic", Value: 1}, {Key: "upvotes", Value: -1}},
	}
	if _, err := s.db.Collection(SuggestionsCollection).Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create suggestion listing index: %w", err)
	}
	return nil
}

func (s *MongoStore) ListAll(ctx context.Context, collection string) ([]Document, error) {
	return s.Find(ctx, collection, Query{})
}

func (s *MongoStore) Find(ctx context.Context, collection string, q Query) ([]Document, error) {
	filter := bson.M{}
	for k, v := range q.Where {
		filter[k] = v
	}

	cursor, err := s.db.Collection(collection).Find(ctx, filter, options.Find().SetSort(sortFor(q)))
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	docs := []Document{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	return docs, nil
}

func (s *MongoStore) GetOne(ctx context.Context, collection, id string) (Document, bool, error) {
	var doc Document
	err := s.db.Collection(collection).FindOne(ctx, IDFilter(id)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("fetch %s/%s: %w", collection, id, err)
	}
	return doc, true, nil
}

func (s *MongoStore) Create(ctx context.Context, collection string, fields Document) (string, error) {
	id := primitive.NewObjectID().Hex()
	doc := withID(fields, id)
	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert into %s: %w", collection, err)
	}
	return id, nil
}

func (s *MongoStore) CreateWithID(ctx context.Context, collection, id string, fields Document) error {
	_, err := s.db.Collection(collection).ReplaceOne(ctx, bson.M{IDField: id}, withID(fields, id), options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *MongoStore) Update(ctx context.Context, collection, id string, fields Document) error {
	return s.Mutate(ctx, collection, id, Mutation{Set: fields})
}

func (s *MongoStore) Remove(ctx context.Context, collection, id string) error {
	if _, err := s.db.Collection(collection).DeleteOne(ctx, IDFilter(id)); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *MongoStore) Mutate(ctx context.Context, collection, id string, m Mutation) error {
	if m.IsEmpty() {
		return nil
	}
	upsert := m.Upsert && m.Require == nil
	filter := BuildFilter(id, m.Require)
	if upsert {
		// An upserted document takes its _id from an equality match.
		filter[IDField] = id
	}
	opts := options.Update().SetUpsert(upsert)
	result, err := s.db.Collection(collection).UpdateOne(ctx, filter, BuildUpdate(m), opts)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if result.MatchedCount == 0 && result.UpsertedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// IDFilter matches id as stored by this service and, for hex ids, documents
// written with a native ObjectID.
func IDFilter(id string) bson.M {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return bson.M{IDField: id}
	}
	return bson.M{IDField: bson.M{"$in": bson.A{id, oid}}}
}

// BuildFilter selects the document by id and, when req is set, only if the
// array contains a matching element.
func BuildFilter(id string, req *RequiredElement) bson.M {
	filter := IDFilter(id)
	if req != nil {
		filter[req.Field] = bson.M{"$elemMatch": bson.M{req.Key: req.Value}}
	}
	return filter
}

// BuildUpdate translates a Mutation into Mongo update operators.
func BuildUpdate(m Mutation) bson.M {
	update := bson.M{}
	if len(m.Set) > 0 {
		set := bson.M{}
		for k, v := range m.Set {
			if k == IDField {
				continue
			}
			set[k] = v
		}
		update["$set"] = set
	}
	if len(m.Push) > 0 {
		push := bson.M{}
		for field, values := range m.Push {
			push[field] = bson.M{"$each": values}
		}
		update["$push"] = push
	}
	if len(m.Pull) > 0 {
		pull := bson.M{}
		for field, match := range m.Pull {
			pull[field] = bson.M{match.Key: match.Value}
		}
		update["$pull"] = pull
	}
	if len(m.Inc) > 0 {
		inc := bson.M{}
		for field, delta := range m.Inc {
			inc[field] = delta
		}
		update["$inc"] = inc
	}
	return update
}

func sortFor(q Query) bson.D {
	if q.SortDesc != "" {
		return bson.D{{Key: q.SortDesc, Value: -1}, {Key: IDField, Value: 1}}
	}
	return bson.D{{Key: IDField, Value: 1}}
}

func withID(fields Document, id string) Document {
	doc := Document{}
	for k, v := range fields {
		doc[k] = v
	}
	doc[IDField] = id
	return doc
}
