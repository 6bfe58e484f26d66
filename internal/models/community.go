package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommunityReply is a single answer under a post.
type CommunityReply struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	AuthorID   primitive.ObjectID `bson:"author_id" json:"authorId"`
	AuthorName string             `bson:"author_name" json:"authorName"`
	Content    string             `bson:"content" json:"content"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
}

// CommunityPost is a forum question with one level of replies.
type CommunityPost struct {
	Base       `bson:",inline"`
	AuthorID   primitive.ObjectID `bson:"author_id" json:"authorId"`
	AuthorName string             `bson:"author_name" json:"authorName"`
	Question   string             `bson:"question" json:"question"`
	Replies    []CommunityReply   `bson:"replies" json:"replies"`
}
