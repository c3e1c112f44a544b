package implementation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	auth_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/auth"
	interfaces "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Repository/Interfaces"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoAccountRepository struct {
	coll *mongo.Collection
}

func NewMongoAccountRepository(coll *mongo.Collection) *MongoAccountRepository {
	return &MongoAccountRepository{coll: coll}
}

// EnsureIndexes creates the unique email index
func (r *MongoAccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create account indexes: %w", err)
	}
	return nil
}

// Create account
func (r *MongoAccountRepository) Create(ctx context.Context, account *auth_models.Account) (*auth_models.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if account.AccountID == "" {
		account.AccountID = uuid.New().String()
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, account); err != nil {
		return nil, translateErr(err)
	}
	return account, nil
}

// Read accounts
func (r *MongoAccountRepository) GetByID(ctx context.Context, accountID string) (*auth_models.Account, error) {
	return r.findOne(ctx, bson.M{"_id": accountID})
}

func (r *MongoAccountRepository) GetByEmail(ctx context.Context, email string) (*auth_models.Account, error) {
	return r.findOne(ctx, bson.M{"email": auth_models.NormalizeEmail(email)})
}

func (r *MongoAccountRepository) findOne(ctx context.Context, filter bson.M) (*auth_models.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	var account auth_models.Account
	if err := r.coll.FindOne(ctx, filter).Decode(&account); err != nil {
		return nil, translateErr(err)
	}
	return &account, nil
}

func (r *MongoAccountRepository) GetAll(ctx context.Context) ([]*auth_models.Account, error) {
	return r.find(ctx, bson.M{})
}

// GetByRole retrieves accounts by role
func (r *MongoAccountRepository) GetByRole(ctx context.Context, role auth_models.Role) ([]*auth_models.Account, error) {
	return r.find(ctx, bson.M{"role": role})
}

func (r *MongoAccountRepository) find(ctx context.Context, filter bson.M) ([]*auth_models.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll[auth_models.Account](ctx, cur)
}

func (r *MongoAccountRepository) CountByRole(ctx context.Context, role auth_models.Role) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()
	return r.coll.CountDocuments(ctx, bson.M{"role": role})
}

// Update account
func (r *MongoAccountRepository) Update(ctx context.Context, account *auth_models.Account) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	account.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": account.AccountID}, account)
	if err != nil {
		return translateErr(err)
	}
	if res.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

// Delete account
func (r *MongoAccountRepository) Delete(ctx context.Context, accountID string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": accountID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}
