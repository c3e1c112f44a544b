package implementation

import (
	"context"
	"time"

	"github.com/google/uuid"
	telemetry_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/telemetry"
	interfaces "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Repository/Interfaces"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoCredentialRepository struct {
	coll *mongo.Collection
}

func NewMongoCredentialRepository(coll *mongo.Collection) *MongoCredentialRepository {
	return &MongoCredentialRepository{coll: coll}
}

func (r *MongoCredentialRepository) Create(ctx context.Context, credential *telemetry_models.Credential) (*telemetry_models.Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if credential.CredentialID == "" {
		credential.CredentialID = uuid.New().String()
	}
	now := time.Now().UTC()
	credential.CreatedAt = now
	credential.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, credential); err != nil {
		return nil, translateErr(err)
	}
	return credential, nil
}

func (r *MongoCredentialRepository) GetByID(ctx context.Context, credentialID string) (*telemetry_models.Credential, error) {
	return r.findOne(ctx, bson.M{"_id": credentialID})
}

func (r *MongoCredentialRepository) GetActive(ctx context.Context) (*telemetry_models.Credential, error) {
	return r.findOne(ctx, bson.M{"active": true})
}

func (r *MongoCredentialRepository) findOne(ctx context.Context, filter bson.M) (*telemetry_models.Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	var credential telemetry_models.Credential
	if err := r.coll.FindOne(ctx, filter).Decode(&credential); err != nil {
		return nil, translateErr(err)
	}
	return &credential, nil
}

func (r *MongoCredentialRepository) List(ctx context.Context) ([]*telemetry_models.Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll[telemetry_models.Credential](ctx, cur)
}

// Update writes the editable fields. The active flag belongs to SetActive.
func (r *MongoCredentialRepository) Update(ctx context.Context, credential *telemetry_models.Credential) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	credential.UpdatedAt = time.Now().UTC()
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": credential.CredentialID},
		bson.M{"$set": bson.M{
			"name":        credential.Name,
			"apiKey":      credential.APIKey,
			"channelId":   credential.ChannelID,
			"description": credential.Description,
			"updatedAt":   credential.UpdatedAt,
		}},
	)
	if err != nil {
		return translateErr(err)
	}
	if res.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

// SetActive sets the flag on the target first, then clears it everywhere else
func (r *MongoCredentialRepository) SetActive(ctx context.Context, credentialID string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	now := time.Now().UTC()
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": credentialID},
		bson.M{"$set": bson.M{"active": true, "updatedAt": now}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	_, err = r.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$ne": credentialID}, "active": true},
		bson.M{"$set": bson.M{"active": false, "updatedAt": now}},
	)
	return err
}

func (r *MongoCredentialRepository) Delete(ctx context.Context, credentialID string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": credentialID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}
