package database

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/datastore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDatastore records calls and assigns ids to incomplete keys.
type fakeDatastore struct {
	calls      []string
	reserved   []int64
	entities   map[int64]EmployeeEntity
	nextID     int64
	reserveErr error
}

func newFakeDatastore() *fakeDatastore {
	return &fakeDatastore{entities: map[int64]EmployeeEntity{}, nextID: 5629499534213120}
}

func (f *fakeDatastore) Put(_ context.Context, key *datastore.Key, src interface{}) (*datastore.Key, error) {
	f.calls = append(f.calls, "put")
	if key.Incomplete() {
		f.nextID++
		key = datastore.IDKey(key.Kind, f.nextID, nil)
	}
	f.entities[key.ID] = *src.(*EmployeeEntity)
	return key, nil
}

func (f *fakeDatastore) Get(_ context.Context, key *datastore.Key, dst interface{}) error {
	entity, ok := f.entities[key.ID]
	if !ok {
		return datastore.ErrNoSuchEntity
	}
	*dst.(*EmployeeEntity) = entity
	return nil
}

func (f *fakeDatastore) GetAll(context.Context, *datastore.Query, interface{}) ([]*datastore.Key, error) {
	return nil, errors.New("not used")
}

func (f *fakeDatastore) Delete(_ context.Context, key *datastore.Key) error {
	delete(f.entities, key.ID)
	return nil
}

func (f *fakeDatastore) ReserveIDs(_ context.Context, keys []*datastore.Key) error {
	f.calls = append(f.calls, "reserve")
	if f.reserveErr != nil {
		return f.reserveErr
	}
	for _, k := range keys {
		f.reserved = append(f.reserved, k.ID)
	}
	return nil
}

func (f *fakeDatastore) Close() error { return nil }

func TestDatastoreClient_PutEmployee(t *testing.T) {
	ctx := context.Background()
	entity := &EmployeeEntity{FirstName: "Samwise", LastName: "Gamgee", Role: "gardener"}

	t.Run("explicit id is reserved before the write", func(t *testing.T) {
		fake := newFakeDatastore()
		dc := &DatastoreClient{client: fake}

		id, err := dc.PutEmployee(ctx, 7, entity)
		require.NoError(t, err)
		assert.Equal(t, int64(7), id)
		assert.Equal(t, []int64{7}, fake.reserved)
		assert.Equal(t, []string{"reserve", "put"}, fake.calls)
	})

	t.Run("generated id needs no reservation", func(t *testing.T) {
		fake := newFakeDatastore()
		dc := &DatastoreClient{client: fake}

		id, err := dc.PutEmployee(ctx, 0, entity)
		require.NoError(t, err)
		assert.Equal(t, fake.nextID, id)
		assert.Empty(t, fake.reserved)
	})

	t.Run("failed reservation skips the write", func(t *testing.T) {
		fake := newFakeDatastore()
		fake.reserveErr = errors.New("quota exceeded")
		dc := &DatastoreClient{client: fake}

		_, err := dc.PutEmployee(ctx, 7, entity)
		assert.ErrorIs(t, err, fake.reserveErr)
		assert.Equal(t, []string{"reserve"}, fake.calls)
		assert.Empty(t, fake.entities)
	})
}

func TestDatastoreClient_GetEmployee(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDatastore()
	fake.entities[3] = EmployeeEntity{FirstName: "Peregrin", LastName: "Took", Role: "guard"}
	dc := &DatastoreClient{client: fake}

	entity, err := dc.GetEmployee(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, &EmployeeEntity{FirstName: "Peregrin", LastName: "Took", Role: "guard"}, entity)

	entity, err = dc.GetEmployee(ctx, 4)
	require.NoError(t, err)
	assert.Nil(t, entity)
}

func TestDatastoreClient_NilClient(t *testing.T) {
	var dc *DatastoreClient
	_, err := dc.PutEmployee(context.Background(), 1, &EmployeeEntity{})
	assert.Error(t, err)
	assert.NoError(t, dc.Close())
}
