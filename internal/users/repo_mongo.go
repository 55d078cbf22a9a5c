package users

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollection = "users"

type MongoRepo struct {
	coll *mongo.Collection
}

type mongoUser struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password,omitempty"`
	GoogleSub    string    `bson:"googleSub,omitempty"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{coll: db.Collection(mongoCollection)}
}

// EnsureIndexes creates a case-insensitive unique index on email.
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetCollation(&options.Collation{Locale: "en", Strength: 2}),
	})
	return err
}

func (r *MongoRepo) Create(ctx context.Context, user User) error {
	_, err := r.coll.InsertOne(ctx, fromUser(user))
	if mongo.IsDuplicateKeyError(err) {
		return ErrEmailTaken
	}
	return err
}

func (r *MongoRepo) GetByID(ctx context.Context, userID string) (User, error) {
	return r.findOne(ctx, bson.M{"_id": userID})
}

func (r *MongoRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	pattern := primitive.Regex{Pattern: "^" + regexp.QuoteMeta(email) + "$", Options: "i"}
	return r.findOne(ctx, bson.M{"email": pattern})
}

func (r *MongoRepo) Update(ctx context.Context, user User) error {
	m := fromUser(user)
	set := bson.M{
		"name":      m.Name,
		"email":     m.Email,
		"updatedAt": m.UpdatedAt,
	}
	update := bson.M{"$set": set}
	unset := bson.M{}
	if m.PasswordHash != "" {
		set["password"] = m.PasswordHash
	} else {
		unset["password"] = ""
	}
	if m.GoogleSub != "" {
		set["googleSub"] = m.GoogleSub
	} else {
		unset["googleSub"] = ""
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": user.ID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepo) findOne(ctx context.Context, filter bson.M) (User, error) {
	var m mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		GoogleSub:    m.GoogleSub,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}, nil
}

func fromUser(u User) mongoUser {
	return mongoUser{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		GoogleSub:    u.GoogleSub,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

var _ Repo = (*MongoRepo)(nil)
