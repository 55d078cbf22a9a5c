package documents

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollection = "documents"

// MongoRepo implements DocumentsRepo on a MongoDB collection.
type MongoRepo struct {
	coll *mongo.Collection
}

type mongoDocument struct {
	ID      string    `bson:"_id"`
	UserID  string    `bson:"userId"`
	Name    string    `bson:"name"`
	URL     string    `bson:"url"`
	Date    time.Time `bson:"date"`
	Summary string    `bson:"summary,omitempty"`
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{coll: db.Collection(mongoCollection)}
}

// EnsureIndexes creates the listing index. Safe to call repeatedly.
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}},
	})
	return err
}

func (r *MongoRepo) Create(ctx context.Context, doc Document) error {
	_, err := r.coll.InsertOne(ctx, mongoDocument{
		ID:      doc.ID,
		UserID:  doc.UserID,
		Name:    doc.Name,
		URL:     doc.URL,
		Date:    doc.UploadedAt,
		Summary: doc.Summary,
	})
	return err
}

func (r *MongoRepo) GetByID(ctx context.Context, id string) (Document, error) {
	var m mongoDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return m.toDocument(), nil
}

func (r *MongoRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Document{}
	for cur.Next(ctx) {
		var m mongoDocument
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, m.toDocument())
	}
	return out, cur.Err()
}

func (r *MongoRepo) UpdateSummary(ctx context.Context, id, summary string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"summary": summary}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m mongoDocument) toDocument() Document {
	return Document{
		ID:         m.ID,
		UserID:     m.UserID,
		Name:       m.Name,
		URL:        m.URL,
		UploadedAt: m.Date.UTC(),
		Summary:    m.Summary,
	}
}

var _ DocumentsRepo = (*MongoRepo)(nil)
