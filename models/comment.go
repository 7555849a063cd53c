package models

import "time"

// CommentSchemaVersion is written on every new comment. Version 1 comments
// carried userId/userName instead of author.
const CommentSchemaVersion = 2

const AnonymousAuthor = "Anonymous User"

type Comment struct {
	ID            string    `bson:"id" json:"id"`
	Author        string    `bson:"author" json:"author"`
	Content       string    `bson:"content" json:"content"`
	UserID        string    `bson:"userId,omitempty" json:"userId,omitempty"`
	UserName      string    `bson:"userName,omitempty" json:"userName,omitempty"`
	Role          string    `bson:"role,omitempty" json:"role,omitempty"`
	SchemaVersion int       `bson:"schemaVersion,omitempty" json:"schemaVersion"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

func NewComment(id, author, content string, now time.Time) Comment {
	if author == "" {
		author = AnonymousAuthor
	}
	return Comment{
		ID:            id,
		Author:        author,
		Content:       content,
		SchemaVersion: CommentSchemaVersion,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Normalize migrates a version 1 comment in place.
func (c *Comment) Normalize() {
	if c.SchemaVersion >= CommentSchemaVersion {
		return
	}
	if c.Author == "" {
		c.Author = c.UserName
	}
	if c.Author == "" {
		c.Author = AnonymousAuthor
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	c.SchemaVersion = CommentSchemaVersion
}
