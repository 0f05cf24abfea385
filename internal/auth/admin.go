package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Admin is a back-office account. The password hash never leaves the server.
type Admin struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"admin_id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}

// Repository persists admin accounts.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Admin, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*Admin, error)
	Insert(ctx context.Context, admin *Admin) error
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewRepository(collection *mongo.Collection) Repository {
	return &mongoRepository{collection: collection}
}

func (m *mongoRepository) FindByEmail(ctx context.Context, email string) (*Admin, error) {
	var admin Admin
	filter := bson.M{"email": strings.ToLower(strings.TrimSpace(email))}
	if err := m.collection.FindOne(ctx, filter).Decode(&admin); err != nil {
		return nil, err
	}
	return &admin, nil
}

func (m *mongoRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*Admin, error) {
	var admin Admin
	if err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&admin); err != nil {
		return nil, err
	}
	return &admin, nil
}

func (m *mongoRepository) Insert(ctx context.Context, admin *Admin) error {
	if admin.ID.IsZero() {
		admin.ID = primitive.NewObjectID()
	}
	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))
	admin.CreatedAt = time.Now()

	if _, err := m.collection.InsertOne(ctx, admin); err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}
