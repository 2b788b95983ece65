package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/fleetfix/internal/auth"
	"github.com/ukydev/fleetfix/internal/models"
)

// MongoSessionCollection implements auth.SessionStore for MongoDB
type MongoSessionCollection struct {
	Collection *mongo.Collection
}

// EnsureIndexes creates the unique refresh token index.
func (c *MongoSessionCollection) EnsureIndexes(ctx context.Context) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	_, err := c.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "refresh_token", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// CreateSession inserts a new session
func (c *MongoSessionCollection) CreateSession(ctx context.Context, session models.Session) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	session.UpdatedAt = time.Now()
	_, err := c.Collection.InsertOne(ctx, session)
	return err
}

// FindSession finds a session by its ID
func (c *MongoSessionCollection) FindSession(ctx context.Context, id string) (*models.Session, error) {
	return c.findOne(ctx, bson.M{"_id": id})
}

// FindSessionByRefreshToken finds the session holding a refresh token
func (c *MongoSessionCollection) FindSessionByRefreshToken(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, auth.ErrSessionNotFound
	}
	return c.findOne(ctx, bson.M{"refresh_token": token})
}

func (c *MongoSessionCollection) findOne(ctx context.Context, filter bson.M) (*models.Session, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	var session models.Session
	err := c.Collection.FindOne(ctx, filter).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, auth.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateSession replaces a stored session
func (c *MongoSessionCollection) UpdateSession(ctx context.Context, session models.Session) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	session.UpdatedAt = time.Now()
	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": session.ID}, session)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return auth.ErrSessionNotFound
	}
	return nil
}

// DeleteSession removes a session
func (c *MongoSessionCollection) DeleteSession(ctx context.Context, id string) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	_, err := c.Collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
