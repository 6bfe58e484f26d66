package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sushil-kumar-saw/mitra-farm/internal/db"
	"github.com/sushil-kumar-saw/mitra-farm/internal/models"
)

// ICommunityService defines the interface for forum operations.
type ICommunityService interface {
	ListPosts(ctx context.Context) ([]models.CommunityPost, error)
	CreatePost(ctx context.Context, authorID primitive.ObjectID, question string) (*models.CommunityPost, error)
	AddReply(ctx context.Context, authorID, postID primitive.ObjectID, content string) (*models.CommunityPost, error)
	DeletePost(ctx context.Context, userID, postID primitive.ObjectID) error
	DeleteReply(ctx context.Context, userID, postID, replyID primitive.ObjectID) error
}

type communityService struct {
	db    *mongo.Database
	users IUserService
}

// NewCommunityService creates a new CommunityService.
func NewCommunityService(db *mongo.Database, users IUserService) ICommunityService {
	return &communityService{db: db, users: users}
}

func (s *communityService) collection() *mongo.Collection {
	return s.db.Collection(db.CommunityPostsCollection)
}

// ListPosts returns every post, newest first.
func (s *communityService) ListPosts(ctx context.Context) ([]models.CommunityPost, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.collection().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying community posts: %w", err)
	}
	posts := []models.CommunityPost{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("error decoding community posts: %w", err)
	}
	for i := range posts {
		if posts[i].Replies == nil {
			posts[i].Replies = []models.CommunityReply{}
		}
	}
	return posts, nil
}

func (s *communityService) CreatePost(ctx context.Context, authorID primitive.ObjectID, question string) (*models.CommunityPost, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, validationErr("Question is required")
	}
	author, err := s.users.FindByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	post := &models.CommunityPost{
		AuthorID:   author.ID,
		AuthorName: author.Name,
		Question:   question,
		Replies:    []models.CommunityReply{},
	}
	post.GenIDIfEmpty()
	post.Touch(time.Now().UTC())

	err = db.Try(func() error {
		_, insertErr := s.collection().InsertOne(ctx, post)
		return insertErr
	})
	if err != nil {
		return nil, fmt.Errorf("error inserting community post: %w", err)
	}
	return post, nil
}

func (s *communityService) AddReply(ctx context.Context, authorID, postID primitive.ObjectID, content string) (*models.CommunityPost, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationErr("Reply content is required")
	}
	author, err := s.users.FindByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reply := models.CommunityReply{
		ID:         primitive.NewObjectID(),
		AuthorID:   author.ID,
		AuthorName: author.Name,
		Content:    content,
		CreatedAt:  now,
	}
	var post models.CommunityPost
	err = s.collection().FindOneAndUpdate(ctx,
		bson.M{"_id": postID},
		bson.M{"$push": bson.M{"replies": reply}, "$set": bson.M{"updated_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("error adding reply to post %s: %w", postID.Hex(), err)
	}
	return &post, nil
}

// DeletePost removes a post; only its author may do so.
func (s *communityService) DeletePost(ctx context.Context, userID, postID primitive.ObjectID) error {
	post, err := s.find(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return ErrNotPostAuthor
	}
	result, err := s.collection().DeleteOne(ctx, bson.M{"_id": postID, "author_id": userID})
	if err != nil {
		return fmt.Errorf("error deleting post %s: %w", postID.Hex(), err)
	}
	if result.DeletedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

// DeleteReply removes one reply from a post; only the reply's author may do so.
func (s *communityService) DeleteReply(ctx context.Context, userID, postID, replyID primitive.ObjectID) error {
	post, err := s.find(ctx, postID)
	if err != nil {
		return err
	}
	var reply *models.CommunityReply
	for i := range post.Replies {
		if post.Replies[i].ID == replyID {
			reply = &post.Replies[i]
			break
		}
	}
	if reply == nil {
		return ErrReplyNotFound
	}
	if reply.AuthorID != userID {
		return ErrNotReplyAuthor
	}

	result, err := s.collection().UpdateOne(ctx,
		bson.M{"_id": postID},
		bson.M{
			"$pull": bson.M{"replies": bson.M{"_id": replyID, "author_id": userID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("error deleting reply %s: %w", replyID.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (s *communityService) find(ctx context.Context, postID primitive.ObjectID) (*models.CommunityPost, error) {
	var post models.CommunityPost
	if err := s.collection().FindOne(ctx, bson.M{"_id": postID}).Decode(&post); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("error finding post %s: %w", postID.Hex(), err)
	}
	return &post, nil
}
