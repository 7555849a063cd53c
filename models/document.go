package models

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// Decode converts a raw store document into v.
func Decode(doc bson.M, v interface{}) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := bson.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// ToDocument converts v into store fields, leaving out the id.
func ToDocument(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	delete(doc, "_id")
	return doc, nil
}

func DecodeProject(doc bson.M) (Project, error) {
	var p Project
	if err := Decode(doc, &p); err != nil {
		return Project{}, err
	}
	p.Normalize()
	return p, nil
}

func DecodeSuggestion(doc bson.M) (ProjectSuggestion, error) {
	var s ProjectSuggestion
	if err := Decode(doc, &s); err != nil {
		return ProjectSuggestion{}, err
	}
	s.Normalize()
	return s, nil
}
