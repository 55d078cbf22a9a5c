package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "smartpdf.users"
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mt.Run("create", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		if err := repo.Create(context.Background(), User{ID: "user-1", Name: "Ada", Email: "ada@example.com", CreatedAt: created, UpdatedAt: created}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	})

	mt.Run("create duplicate email", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))
		err := repo.Create(context.Background(), User{ID: "user-2", Name: "Ada", Email: "ADA@example.com"})
		if !errors.Is(err, ErrEmailTaken) {
			t.Fatalf("expected ErrEmailTaken, got %v", err)
		}
	})

	mt.Run("get by email", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "user-1"},
			{Key: "name", Value: "Ada"},
			{Key: "email", Value: "ada@example.com"},
			{Key: "password", Value: "hash"},
			{Key: "createdAt", Value: created},
			{Key: "updatedAt", Value: created},
		}))
		user, err := repo.GetByEmail(context.Background(), "Ada@Example.com")
		if err != nil {
			t.Fatalf("GetByEmail: %v", err)
		}
		if user.ID != "user-1" || user.PasswordHash != "hash" || !user.CreatedAt.Equal(created) {
			t.Fatalf("unexpected user: %+v", user)
		}
	})

	mt.Run("get missing", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("update", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB)
		user := User{ID: "user-1", Name: "Ada L", Email: "ada@example.com", GoogleSub: "g-1", UpdatedAt: created}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		if err := repo.Update(context.Background(), user); err != nil {
			t.Fatalf("Update: %v", err)
		}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		if err := repo.Update(context.Background(), user); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		if err := repo.EnsureIndexes(context.Background()); err != nil {
			t.Fatalf("EnsureIndexes: %v", err)
		}
	})
}
