package database

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/datastore"
)

// EmployeeKind is the Datastore kind holding employees.
const EmployeeKind = "Employee"

// EmployeeEntity is the Datastore representation of an employee; the id lives in the key.
type EmployeeEntity struct {
	FirstName string `datastore:"FirstName"`
	LastName  string `datastore:"LastName"`
	Role      string `datastore:"Role"`
}

// datastoreAPI is the part of *datastore.Client the employee store uses.
type datastoreAPI interface {
	Put(ctx context.Context, key *datastore.Key, src interface{}) (*datastore.Key, error)
	Get(ctx context.Context, key *datastore.Key, dst interface{}) error
	GetAll(ctx context.Context, q *datastore.Query, dst interface{}) ([]*datastore.Key, error)
	Delete(ctx context.Context, key *datastore.Key) error
	ReserveIDs(ctx context.Context, keys []*datastore.Key) error
	Close() error
}

// DatastoreClient wraps the cloud datastore client
type DatastoreClient struct {
	client datastoreAPI
}

// NewDatastoreClient connects to the project. DATASTORE_EMULATOR_HOST is honoured by the SDK.
func NewDatastoreClient(ctx context.Context, projectID string) (*DatastoreClient, error) {
	if projectID == "" {
		return nil, fmt.Errorf("datastore project id is required")
	}
	client, err := datastore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create datastore client: %w", err)
	}
	return &DatastoreClient{client: client}, nil
}

// PutEmployee stores the entity under id, or under a generated id when id is 0.
// An explicit id is reserved first so the id allocator never hands it out again.
// It returns the id the entity was stored under.
func (dc *DatastoreClient) PutEmployee(ctx context.Context, id int64, entity *EmployeeEntity) (int64, error) {
	if dc == nil || dc.client == nil {
		return 0, fmt.Errorf("datastore client is nil")
	}

	key := datastore.IncompleteKey(EmployeeKind, nil)
	if id != 0 {
		key = datastore.IDKey(EmployeeKind, id, nil)
		if err := dc.client.ReserveIDs(ctx, []*datastore.Key{key}); err != nil {
			return 0, fmt.Errorf("failed to reserve employee id %d: %w", id, err)
		}
	}

	stored, err := dc.client.Put(ctx, key, entity)
	if err != nil {
		return 0, err
	}
	return stored.ID, nil
}

// GetEmployee returns nil without error when no entity has the id.
func (dc *DatastoreClient) GetEmployee(ctx context.Context, id int64) (*EmployeeEntity, error) {
	if dc == nil || dc.client == nil {
		return nil, fmt.Errorf("datastore client is nil")
	}

	var entity EmployeeEntity
	err := dc.client.Get(ctx, datastore.IDKey(EmployeeKind, id, nil), &entity)
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// GetAllEmployees returns every entity keyed by id.
func (dc *DatastoreClient) GetAllEmployees(ctx context.Context) (map[int64]EmployeeEntity, error) {
	if dc == nil || dc.client == nil {
		return nil, fmt.Errorf("datastore client is nil")
	}

	var entities []EmployeeEntity
	keys, err := dc.client.GetAll(ctx, datastore.NewQuery(EmployeeKind), &entities)
	if err != nil {
		return nil, err
	}

	result := make(map[int64]EmployeeEntity, len(keys))
	for i, key := range keys {
		result[key.ID] = entities[i]
	}
	return result, nil
}

// DeleteEmployee removes the entity, a missing entity is not an error.
func (dc *DatastoreClient) DeleteEmployee(ctx context.Context, id int64) error {
	if dc == nil || dc.client == nil {
		return fmt.Errorf("datastore client is nil")
	}
	return dc.client.Delete(ctx, datastore.IDKey(EmployeeKind, id, nil))
}

func (dc *DatastoreClient) Close() error {
	if dc == nil || dc.client == nil {
		return nil
	}
	return dc.client.Close()
}
