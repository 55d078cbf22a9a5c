package documents

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
	ns := "smartpdf.documents"
	uploaded := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mt.Run("create", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		err := repo.Create(context.Background(), Document{ID: "doc-1", UserID: "user-1", Name: "a.pdf", URL: "u", UploadedAt: uploaded})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
	})

	mt.Run("get by id", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "doc-1"},
			{Key: "userId", Value: "user-1"},
			{Key: "name", Value: "a.pdf"},
			{Key: "url", Value: "http://x/uploads/k"},
			{Key: "date", Value: uploaded},
			{Key: "summary", Value: "Point one\nPoint two"},
		}))
		doc, err := repo.GetByID(context.Background(), "doc-1")
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if doc.UserID != "user-1" || doc.Summary != "Point one\nPoint two" || !doc.UploadedAt.Equal(uploaded) {
			t.Fatalf("unexpected document: %+v", doc)
		}
	})

	mt.Run("get missing", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("list by user", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "doc-2"}, {Key: "userId", Value: "user-1"}, {Key: "name", Value: "b.pdf"}, {Key: "url", Value: "u2"}, {Key: "date", Value: uploaded}},
			bson.D{{Key: "_id", Value: "doc-1"}, {Key: "userId", Value: "user-1"}, {Key: "name", Value: "a.pdf"}, {Key: "url", Value: "u1"}, {Key: "date", Value: uploaded.Add(-time.Hour)}},
		))
		docs, err := repo.ListByUser(context.Background(), "user-1", 0, 0)
		if err != nil {
			t.Fatalf("ListByUser: %v", err)
		}
		if len(docs) != 2 || docs[0].ID != "doc-2" || docs[1].ID != "doc-1" {
			t.Fatalf("unexpected docs: %+v", docs)
		}
	})

	mt.Run("update summary", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		if err := repo.UpdateSummary(context.Background(), "doc-1", "Point one"); err != nil {
			t.Fatalf("UpdateSummary: %v", err)
		}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		if err := repo.UpdateSummary(context.Background(), "missing", "Point one"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("delete", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		if err := repo.Delete(context.Background(), "doc-1"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
