package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anonto42/kdiary/backend/internal/models"
	apperrors "github.com/anonto42/kdiary/backend/pkg/errors"
)

// MongoPostStore implements PostStore for MongoDB
type MongoPostStore struct {
	collection *mongo.Collection
}

// NewMongoPostStore creates a new MongoPostStore on the "posts" collection
func NewMongoPostStore(db *mongo.Database) *MongoPostStore {
	return &MongoPostStore{collection: db.Collection("posts")}
}

// EnsureIndexes creates the createdAt index used by listing
func (s *MongoPostStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return apperrors.StoreFault(err, "failed to create posts index")
	}
	return nil
}

// Insert creates a post document
func (s *MongoPostStore) Insert(ctx context.Context, post *models.Post) error {
	if _, err := s.collection.InsertOne(ctx, post); err != nil {
		return apperrors.StoreFault(err, "failed to insert post")
	}
	return nil
}

// FindByID retrieves a post by ID from MongoDB
func (s *MongoPostStore) FindByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("post not found")
		}
		return nil, apperrors.StoreFault(err, "failed to find post")
	}
	return &post, nil
}

// FindAll retrieves every post document
func (s *MongoPostStore) FindAll(ctx context.Context) ([]models.Post, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, apperrors.StoreFault(err, "failed to list posts")
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, apperrors.StoreFault(err, "failed to decode posts")
	}
	return posts, nil
}

// Replace overwrites a post document
func (s *MongoPostStore) Replace(ctx context.Context, post *models.Post) error {
	result, err := s.collection.ReplaceOne(ctx, bson.M{"_id": post.ID}, post)
	if err != nil {
		return apperrors.StoreFault(err, "failed to replace post")
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFound("post not found")
	}
	return nil
}

// Delete removes a post document
func (s *MongoPostStore) Delete(ctx context.Context, id string) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperrors.StoreFault(err, "failed to delete post")
	}
	if result.DeletedCount == 0 {
		return apperrors.NotFound("post not found")
	}
	return nil
}

func (s *MongoPostStore) Exists(ctx context.Context, id string) (bool, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, apperrors.StoreFault(err, "failed to count posts")
	}
	return count > 0, nil
}
