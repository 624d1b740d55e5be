package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/payroll/internal/domain"
)

func TestEmployeeQueries(t *testing.T) {
	e := domain.Employee{ID: 2, FirstName: "Frodo", LastName: "Baggins", Role: "thief"}

	testCases := map[string]struct {
		build func() (string, []interface{})
		query string
		args  []interface{}
	}{
		"insert": {
			build: func() (string, []interface{}) {
				return insertEmployeeQuery(domain.NewEmployee("Bilbo", "Baggins", "burglar"))
			},
			query: "INSERT INTO employee (first_name, last_name, role) VALUES ($1, $2, $3) RETURNING id",
			args:  []interface{}{"Bilbo", "Baggins", "burglar"},
		},
		"upsert": {
			build: func() (string, []interface{}) { return upsertEmployeeQuery(e) },
			query: "INSERT INTO employee (id, first_name, last_name, role) VALUES ($1, $2, $3, $4) " +
				"ON CONFLICT (id) DO UPDATE SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name, role = EXCLUDED.role",
			args: []interface{}{int64(2), "Frodo", "Baggins", "thief"},
		},
		"find": {
			build: func() (string, []interface{}) { return findEmployeeQuery(2) },
			query: "SELECT id, first_name, last_name, role FROM employee WHERE id = $1",
			args:  []interface{}{int64(2)},
		},
		"list": {
			build: listEmployeesQuery,
			query: "SELECT id, first_name, last_name, role FROM employee ORDER BY id ASC",
			args:  nil,
		},
		"delete": {
			build: func() (string, []interface{}) { return deleteEmployeeQuery(2) },
			query: "DELETE FROM employee WHERE id = $1",
			args:  []interface{}{int64(2)},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			query, args := tc.build()
			assert.Equal(t, tc.query, query)
			assert.Equal(t, tc.args, args)
		})
	}
}

func newMockRepository(t *testing.T) (domain.EmployeeRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewEmployeeRepository(db), mock
}

func TestEmployeeRepository_SaveNewUsesGeneratedID(t *testing.T) {
	repo, mock := newMockRepository(t)
	query, _ := insertEmployeeQuery(domain.Employee{})

	mock.ExpectQuery(query).
		WithArgs("Bilbo", "Baggins", "burglar").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	saved, err := repo.Save(context.Background(), domain.NewEmployee("Bilbo", "Baggins", "burglar"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.ID)
}

func TestEmployeeRepository_SaveWithIDRaisesSequenceToThatID(t *testing.T) {
	repo, mock := newMockRepository(t)
	e := domain.Employee{ID: 10, FirstName: "Samwise", LastName: "Gamgee", Role: "gardener"}
	query, _ := upsertEmployeeQuery(e)

	mock.ExpectBegin()
	mock.ExpectExec(query).
		WithArgs(int64(10), "Samwise", "Gamgee", "gardener").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(raiseEmployeeSequence).
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	saved, err := repo.Save(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, e, saved)
}

func TestEmployeeRepository_SaveWithIDRollsBackOnFailure(t *testing.T) {
	repo, mock := newMockRepository(t)
	e := domain.Employee{ID: 3, FirstName: "Peregrin", LastName: "Took", Role: "guard"}
	query, _ := upsertEmployeeQuery(e)

	mock.ExpectBegin()
	mock.ExpectExec(query).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.Save(context.Background(), e)
	assert.ErrorContains(t, err, "failed to save employee 3")
}

func TestEmployeeRepository_RaiseSequenceNeverLowers(t *testing.T) {
	assert.Contains(t, raiseEmployeeSequence, "WHERE $1 >= (SELECT last_value FROM employee_id_seq)")
	assert.NotContains(t, raiseEmployeeSequence, "MAX(id)")
}

func TestEmployeeRepository_FindAndDelete(t *testing.T) {
	repo, mock := newMockRepository(t)
	ctx := context.Background()

	findQuery, _ := findEmployeeQuery(2)
	mock.ExpectQuery(findQuery).WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(employeeColumns).AddRow(int64(2), "Frodo", "Baggins", "thief"))
	mock.ExpectQuery(findQuery).WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(employeeColumns))

	listQuery, _ := listEmployeesQuery()
	mock.ExpectQuery(listQuery).
		WillReturnRows(sqlmock.NewRows(employeeColumns).
			AddRow(int64(1), "Bilbo", "Baggins", "burglar").
			AddRow(int64(2), "Frodo", "Baggins", "thief"))

	deleteQuery, _ := deleteEmployeeQuery(2)
	mock.ExpectExec(deleteQuery).WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 1))

	found, ok, err := repo.FindByID(ctx, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Frodo Baggins", found.Name())

	_, ok, err = repo.FindByID(ctx, 9)
	require.NoError(t, err)
	assert.False(t, ok)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, repo.DeleteByID(ctx, 2))
}
