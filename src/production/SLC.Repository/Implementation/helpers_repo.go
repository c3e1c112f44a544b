package implementation

import (
	"context"
	"errors"
	"time"

	interfaces "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Repository/Interfaces"
	"go.mongodb.org/mongo-driver/mongo"
)

// Per-call timeouts
const (
	readTimeout  = 3 * time.Second
	writeTimeout = 5 * time.Second
)

// translateErr maps driver errors onto the repository sentinels
func translateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return interfaces.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return interfaces.ErrDuplicate
	}
	return err
}

// decodeAll drains a cursor into a slice of pointers
func decodeAll[T any](ctx context.Context, cur *mongo.Cursor) ([]*T, error) {
	defer cur.Close(ctx)

	items := make([]*T, 0)
	for cur.Next(ctx) {
		var item T
		if err := cur.Decode(&item); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, cur.Err()
}

// Account Repository
// ├── Create() - unique email
// ├── GetByID() / GetByEmail() - single lookup
// ├── GetAll() / GetByRole() / CountByRole()
// ├── Update() - name/email/role/password/token/image
// └── Delete()

// Device Repository
// ├── Create() - unique LED number
// ├── GetByID() - single lookup
// ├── List() - filtered by scope/owner, ordered by LED number
// ├── Update() / UpdateStatus()
// └── Delete()

// Credential Repository
// ├── Create() / GetByID() / GetActive()
// ├── List() - newest first
// ├── Update() / SetActive()
// └── Delete()
