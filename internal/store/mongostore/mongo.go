// Package mongostore is the document-store backend. Credentials live in the
// "login" collection and predictions in "predictions", both keyed by ObjectID.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leafscan/api/internal/model"
	"leafscan/api/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	client      *mongo.Client
	credentials *mongo.Collection
	predictions *mongo.Collection
}

var _ store.Store = (*Store)(nil)

type credentialDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Password  string             `bson:"password"`
	Role      string             `bson:"role"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

type predictionDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      string             `bson:"user_id"`
	ImagePath   *string            `bson:"image_path"`
	DiseaseName string             `bson:"disease_name"`
	Confidence  *float64           `bson:"confidence"`
	Description *string            `bson:"description"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func NewStore(uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	ctxPing, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := client.Ping(ctxPing, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping: %w", err)
	}

	db := client.Database(database)
	return &Store{
		client:      client,
		credentials: db.Collection(store.CredentialsCollection),
		predictions: db.Collection(store.PredictionsCollection),
	}, nil
}

// Migrate creates the indexes the store relies on, including the unique
// username index that closes the check-then-insert registration race.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.credentials.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uq_login_username"),
	})
	if err != nil {
		return fmt.Errorf("create login index: %w", err)
	}

	_, err = s.predictions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("idx_predictions_user_created"),
	})
	if err != nil {
		return fmt.Errorf("create predictions index: %w", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) CreateCredential(ctx context.Context, c model.Credential) (model.Credential, error) {
	doc := credentialDoc{
		Username:  c.Username,
		Password:  c.PasswordHash,
		Role:      c.Role,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	doc.CreatedAt, doc.UpdatedAt = timestamps(doc.CreatedAt, doc.UpdatedAt)

	res, err := s.credentials.InsertOne(ctx, doc)
	if err != nil {
		return model.Credential{}, mapMongoErr(err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toModel(), nil
}

func (s *Store) GetCredentialByUsername(ctx context.Context, username string) (*model.Credential, error) {
	var doc credentialDoc
	if err := s.credentials.FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		return nil, mapMongoErr(err)
	}
	c := doc.toModel()
	return &c, nil
}

func (s *Store) CreatePrediction(ctx context.Context, p model.Prediction) (model.Prediction, error) {
	doc := predictionDoc{
		UserID:      p.UserID,
		ImagePath:   p.ImagePath,
		DiseaseName: p.DiseaseName,
		Confidence:  p.Confidence,
		Description: p.Description,
	}
	doc.CreatedAt, doc.UpdatedAt = timestamps(p.CreatedAt, p.UpdatedAt)

	res, err := s.predictions.InsertOne(ctx, doc)
	if err != nil {
		return model.Prediction{}, mapMongoErr(err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toModel(), nil
}

func (s *Store) GetPrediction(ctx context.Context, id string) (*model.Prediction, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}

	var doc predictionDoc
	if err := s.predictions.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapMongoErr(err)
	}
	p := doc.toModel()
	return &p, nil
}

func (s *Store) ListPredictionsByUser(ctx context.Context, userID string) ([]model.Prediction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.predictions.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, mapMongoErr(err)
	}
	defer cur.Close(ctx)

	out := make([]model.Prediction, 0)
	for cur.Next(ctx) {
		var doc predictionDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, mapMongoErr(err)
	}
	return out, nil
}

func (d credentialDoc) toModel() model.Credential {
	return model.Credential{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		PasswordHash: d.Password,
		Role:         d.Role,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

func (d predictionDoc) toModel() model.Prediction {
	return model.Prediction{
		ID:          d.ID.Hex(),
		UserID:      d.UserID,
		ImagePath:   d.ImagePath,
		DiseaseName: d.DiseaseName,
		Confidence:  d.Confidence,
		Description: d.Description,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

// BSON dates carry millisecond precision.
func timestamps(created, updated time.Time) (time.Time, time.Time) {
	if created.IsZero() {
		created = time.Now().UTC()
	}
	created = created.Truncate(time.Millisecond)
	if updated.IsZero() {
		updated = created
	}
	return created, updated.Truncate(time.Millisecond)
}

func mapMongoErr(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return store.ErrConflict
	default:
		return err
	}
}
