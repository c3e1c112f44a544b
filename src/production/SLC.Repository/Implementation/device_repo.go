package implementation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	hardware_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/hardware"
	interfaces "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Repository/Interfaces"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoDeviceRepository struct {
	coll *mongo.Collection
}

func NewMongoDeviceRepository(coll *mongo.Collection) *MongoDeviceRepository {
	return &MongoDeviceRepository{coll: coll}
}

// EnsureIndexes creates the unique LED number index
func (r *MongoDeviceRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "ledNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "scope", Value: 1}, {Key: "createdBy", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create device indexes: %w", err)
	}
	return nil
}

// Create device
func (r *MongoDeviceRepository) Create(ctx context.Context, device *hardware_models.Device) (*hardware_models.Device, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if device.DeviceID == "" {
		device.DeviceID = uuid.New().String()
	}
	now := time.Now().UTC()
	device.CreatedAt = now
	device.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, device); err != nil {
		return nil, translateErr(err)
	}
	return device, nil
}

func (r *MongoDeviceRepository) GetByID(ctx context.Context, deviceID string) (*hardware_models.Device, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	var device hardware_models.Device
	if err := r.coll.FindOne(ctx, bson.M{"_id": deviceID}).Decode(&device); err != nil {
		return nil, translateErr(err)
	}
	return &device, nil
}

func (r *MongoDeviceRepository) List(ctx context.Context, filter interfaces.DeviceFilter) ([]*hardware_models.Device, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	query := bson.M{}
	if filter.Scope != "" {
		query["scope"] = filter.Scope
	}
	if filter.OwnerID != "" {
		query["createdBy"] = filter.OwnerID
	}

	cur, err := r.coll.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "ledNumber", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll[hardware_models.Device](ctx, cur)
}

// Update writes the registration fields only. Status belongs to UpdateStatus.
func (r *MongoDeviceRepository) Update(ctx context.Context, device *hardware_models.Device) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	device.UpdatedAt = time.Now().UTC()
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": device.DeviceID},
		bson.M{"$set": bson.M{
			"name":               device.Name,
			"ledNumber":          device.LedNumber,
			"thingSpeakField":    device.FieldID,
			"scope":              device.Scope,
			"createdBy":          device.OwnerID,
			"inputStatusUrl":     device.InputStatusRef,
			"currentStatusUrl":   device.CurrentStatusRef,
			"credentialStrategy": device.CredentialStrategy,
			"credentialId":       device.CredentialID,
			"updatedAt":          device.UpdatedAt,
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

// UpdateStatus writes only the acknowledged status
func (r *MongoDeviceRepository) UpdateStatus(ctx context.Context, deviceID string, status hardware_models.Status) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": deviceID},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

// Delete device
func (r *MongoDeviceRepository) Delete(ctx context.Context, deviceID string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": deviceID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}
