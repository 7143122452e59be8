package entities

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/mediakeeper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock, db
}

const upsertQuery = `INSERT INTO entities .* ON CONFLICT \(user_id, entity_type, id\) DO UPDATE SET .* RETURNING payload;`

func TestPostgresUpsert_ReturnsStoredPayload(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(upsertQuery).
		WithArgs("alice", "anime", "a1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte(`{"id":"a1","title":"Akira"}`)))

	got, err := repo.Upsert(context.Background(), "alice", "anime", models.Payload{"id": "a1", "title": "Akira"})
	require.NoError(t, err)
	assert.Equal(t, models.Payload{"id": "a1", "title": "Akira"}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsert_DBError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(upsertQuery).
		WithArgs("alice", "anime", "a1", sqlmock.AnyArg()).
		WillReturnError(errors.New("db is down"))

	_, err := repo.Upsert(context.Background(), "alice", "anime", models.Payload{"id": "a1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db is down")
}

func TestPostgresUpsert_BadStoredJSON(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(upsertQuery).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte(`{`)))

	_, err := repo.Upsert(context.Background(), "alice", "anime", models.Payload{"id": "a1"})
	require.Error(t, err)
}

func TestPostgresDelete(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"existing", 1, true},
		{"missing", 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock, _ := newRepoWithMock(t)

			mock.ExpectExec(`DELETE FROM entities WHERE user_id = \$1 AND entity_type = \$2 AND id = \$3;`).
				WithArgs("alice", "manga", "m1").
				WillReturnResult(sqlmock.NewResult(0, tc.affected))

			got, err := repo.Delete(context.Background(), "alice", "manga", "m1")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresDelete_Errors(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectExec(`DELETE FROM entities`).WillReturnError(errors.New("boom"))
	_, err := repo.Delete(context.Background(), "alice", "manga", "m1")
	require.Error(t, err)

	mock.ExpectExec(`DELETE FROM entities`).WillReturnResult(sqlmock.NewErrorResult(errors.New("no count")))
	_, err = repo.Delete(context.Background(), "alice", "manga", "m1")
	require.Error(t, err)
}

func TestPostgresListAll(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT payload FROM entities WHERE user_id = \$1 AND entity_type = \$2 ORDER BY created_at, id;`).
		WithArgs("alice", "anime").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).
			AddRow([]byte(`{"id":"a1","title":"Akira"}`)).
			AddRow([]byte(`{"id":"a2","episodes":26}`)))

	got, err := repo.ListAll(context.Background(), "alice", "anime")
	require.NoError(t, err)
	assert.Equal(t, []models.Payload{
		{"id": "a1", "title": "Akira"},
		{"id": "a2", "episodes": float64(26)},
	}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListAll_Empty(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT payload FROM entities`).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	got, err := repo.ListAll(context.Background(), "alice", "anime")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPostgresListAll_Errors(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT payload FROM entities`).WillReturnError(errors.New("boom"))
	_, err := repo.ListAll(context.Background(), "alice", "anime")
	require.Error(t, err)

	mock.ExpectQuery(`SELECT payload FROM entities`).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).
			AddRow([]byte(`{"id":"a1"}`)).
			RowError(0, errors.New("row broke")))
	_, err = repo.ListAll(context.Background(), "alice", "anime")
	require.Error(t, err)
}
