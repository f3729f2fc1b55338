package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Jansmig/magmamath/pkg/models"
)

// CollectionName is the MongoDB collection holding users.
const CollectionName = "users"

// emailCollation makes email comparisons case-insensitive.
var emailCollation = &options.Collation{Locale: "en", Strength: 2}

// Patch lists the fields of an update. Nil fields are not written.
type Patch struct {
	Name      *string
	Email     *string
	UpdatedAt time.Time
}

// Repository is the user data access layer. Lookups of a missing user
// return ErrNotFound.
type Repository interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindMany(ctx context.Context, page, limit int) (models.PaginatedUsers, error)
	UpdateByID(ctx context.Context, id string, patch Patch) (models.User, error)
	DeleteByID(ctx context.Context, id string) (models.User, error)
}

type userDocument struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Name      string        `bson:"name"`
	Email     string        `bson:"email"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

func (d userDocument) toModel() models.User {
	return models.User{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// MongoRepository stores users in a MongoDB collection.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository returns a repository backed by the users collection of db.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the unique, case-insensitive email index.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true).
			SetCollation(emailCollation),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	doc := userDocument{
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return models.User{}, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	doc.ID = id
	return doc.toModel(), nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return models.User{}, ErrNotFound
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}}, options.FindOne())
}

func (r *MongoRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}},
		options.FindOne().SetCollation(emailCollation))
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.D, opts *options.FindOneOptionsBuilder) (models.User, error) {
	var doc userDocument
	err := r.coll.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return doc.toModel(), nil
}

// FindMany returns one page of users ordered by creation time, newest first.
func (r *MongoRepository) FindMany(ctx context.Context, page, limit int) (models.PaginatedUsers, error) {
	total, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return models.PaginatedUsers{}, fmt.Errorf("count users: %w", err)
	}

	cursor, err := r.coll.Find(ctx, bson.D{}, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(models.Skip(page, limit)).
		SetLimit(int64(limit)))
	if err != nil {
		return models.PaginatedUsers{}, fmt.Errorf("find users: %w", err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return models.PaginatedUsers{}, fmt.Errorf("decode users: %w", err)
	}

	data := make([]models.User, 0, len(docs))
	for _, d := range docs {
		data = append(data, d.toModel())
	}
	return models.PaginatedUsers{Data: data, Meta: models.NewPageMeta(total, page, limit)}, nil
}

// UpdateByID sets the supplied fields and updatedAt, returning the updated user.
func (r *MongoRepository) UpdateByID(ctx context.Context, id string, patch Patch) (models.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return models.User{}, ErrNotFound
	}

	set := bson.D{{Key: "updatedAt", Value: patch.UpdatedAt}}
	if patch.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *patch.Name})
	}
	if patch.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *patch.Email})
	}

	var doc userDocument
	err = r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	return doc.toModel(), nil
}

// DeleteByID removes the user and returns the deleted record.
func (r *MongoRepository) DeleteByID(ctx context.Context, id string) (models.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return models.User{}, ErrNotFound
	}

	var doc userDocument
	err = r.coll.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("delete user: %w", err)
	}
	return doc.toModel(), nil
}
