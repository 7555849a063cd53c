package store

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memoryCollection struct {
	order []string
	docs  map[string]Document
}

// MemoryStore keeps documents in process. Documents are copied through a
// bson round trip on the way in and out, so callers see the same types the
// Mongo driver would hand back.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: map[string]*memoryCollection{}}
}

func (s *MemoryStore) collection(name string) *memoryCollection {
	c, ok := s.collections[name]
	if !ok {
		c = &memoryCollection{docs: map[string]Document{}}
		s.collections[name] = c
	}
	return c
}

// lookup never creates a collection; read paths only hold the read lock.
func (s *MemoryStore) lookup(name string) (*memoryCollection, bool) {
	c, ok := s.collections[name]
	return c, ok
}

func (s *MemoryStore) ListAll(ctx context.Context, collection string) ([]Document, error) {
	return s.Find(ctx, collection, Query{})
}

func (s *MemoryStore) Find(_ context.Context, collection string, q Query) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Document{}
	c, ok := s.lookup(collection)
	if !ok {
		return out, nil
	}
	for _, id := range c.order {
		doc := c.docs[id]
		if !matches(doc, q.Where) {
			continue
		}
		cp, err := clone(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}

	if q.SortDesc != "" {
		sort.SliceStable(out, func(i, j int) bool {
			return toFloat(out[i][q.SortDesc]) > toFloat(out[j][q.SortDesc])
		})
	}
	return out, nil
}

func (s *MemoryStore) GetOne(_ context.Context, collection, id string) (Document, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.lookup(collection)
	if !ok {
		return nil, false, nil
	}
	doc, ok := c.docs[id]
	if !ok {
		return nil, false, nil
	}
	cp, err := clone(doc)
	if err != nil {
		return nil, false, err
	}
	return cp, true, nil
}

func (s *MemoryStore) Create(ctx context.Context, collection string, fields Document) (string, error) {
	id := primitive.NewObjectID().Hex()
	if err := s.CreateWithID(ctx, collection, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

func (s *MemoryStore) CreateWithID(_ context.Context, collection, id string, fields Document) error {
	doc, err := clone(fields)
	if err != nil {
		return err
	}
	doc[IDField] = id

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection)
	if _, exists := c.docs[id]; !exists {
		c.order = append(c.order, id)
	}
	c.docs[id] = doc
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields Document) error {
	return s.Mutate(ctx, collection, id, Mutation{Set: fields})
}

func (s *MemoryStore) Remove(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.lookup(collection)
	if !ok {
		return nil
	}
	if _, ok := c.docs[id]; !ok {
		return nil
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) Mutate(_ context.Context, collection, id string, m Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection)
	current, ok := c.docs[id]
	if !ok {
		if !m.Upsert || m.Require != nil {
			return ErrNotFound
		}
		current = Document{IDField: id}
	}
	if m.Require != nil && !containsElement(current[m.Require.Field], m.Require.ElementMatch) {
		return ErrNotFound
	}

	doc, err := clone(current)
	if err != nil {
		return err
	}
	patch, err := clone(m.Set)
	if err != nil {
		return err
	}
	for k, v := range patch {
		if k == IDField {
			continue
		}
		doc[k] = v
	}
	for field, values := range m.Push {
		arr := toArray(doc[field])
		for _, v := range values {
			encoded, err := cloneValue(v)
			if err != nil {
				return err
			}
			arr = append(arr, encoded)
		}
		doc[field] = arr
	}
	for field, match := range m.Pull {
		kept := bson.A{}
		for _, el := range toArray(doc[field]) {
			if !elementMatches(el, match) {
				kept = append(kept, el)
			}
		}
		doc[field] = kept
	}
	for field, delta := range m.Inc {
		sum, err := addNumbers(doc[field], delta)
		if err != nil {
			return fmt.Errorf("increment %s: %w", field, err)
		}
		doc[field] = sum
	}

	if !ok {
		c.order = append(c.order, id)
	}
	c.docs[id] = doc
	return nil
}

func (s *MemoryStore) Ping(context.Context) error  { return nil }
func (s *MemoryStore) Close(context.Context) error { return nil }

func clone(doc Document) (Document, error) {
	if doc == nil {
		return Document{}, nil
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var out Document
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

func cloneValue(v interface{}) (interface{}, error) {
	wrapped, err := clone(Document{"v": v})
	if err != nil {
		return nil, err
	}
	return wrapped["v"], nil
}

func matches(doc, where Document) bool {
	for k, want := range where {
		got, ok := doc[k]
		if !ok || !equalValues(got, want) {
			return false
		}
	}
	return true
}

func equalValues(a, b interface{}) bool {
	if isNumber(a) && isNumber(b) {
		return toFloat(a) == toFloat(b)
	}
	return reflect.DeepEqual(a, b)
}

func toArray(v interface{}) bson.A {
	switch arr := v.(type) {
	case bson.A:
		return append(bson.A{}, arr...)
	case []interface{}:
		return append(bson.A{}, arr...)
	}
	return bson.A{}
}

func elementMatches(el interface{}, match ElementMatch) bool {
	m, ok := el.(bson.M)
	if !ok {
		if d, isD := el.(bson.D); isD {
			m = d.Map()
		} else {
			return false
		}
	}
	got, ok := m[match.Key]
	return ok && equalValues(got, match.Value)
}

func containsElement(v interface{}, match ElementMatch) bool {
	for _, el := range toArray(v) {
		if elementMatches(el, match) {
			return true
		}
	}
	return false
}

func isNumber(v interface{}) bool {
	switch v.(type) {
	case int, int32, int64, float32, float64:
		return true
	}
	return false
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

// addNumbers follows $inc: integers stay integers unless either side is a
// float, and a missing field starts at zero.
func addNumbers(current, delta interface{}) (interface{}, error) {
	if !isNumber(delta) {
		return nil, fmt.Errorf("non numeric delta %T", delta)
	}
	if current == nil {
		current = int32(0)
	}
	if !isNumber(current) {
		return nil, fmt.Errorf("non numeric field %T", current)
	}
	switch current.(type) {
	case float32, float64:
		return toFloat(current) + toFloat(delta), nil
	}
	switch d := delta.(type) {
	case float32, float64:
		return toFloat(current) + toFloat(d), nil
	}
	return toInt(current) + toInt(delta), nil
}

func toInt(v interface{}) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	}
	return 0
}
