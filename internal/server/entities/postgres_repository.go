package entities

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/mediakeeper/internal/dbx"
	"github.com/dmitrijs2005/mediakeeper/internal/models"
	"github.com/dmitrijs2005/mediakeeper/internal/server/migrations"
	"github.com/goccy/go-json"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepository implements record storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// OpenPostgres connects with the pgx stdlib driver and applies the
// embedded migrations.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return db, nil
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}

// Upsert inserts the record or replaces the payload of an existing one.
// The primary key is (user_id, entity_type, id), so users never see each
// other's records.
func (r *PostgresRepository) Upsert(ctx context.Context, userID, entityType string, p models.Payload) (models.Payload, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	query := `
		INSERT INTO entities (user_id, entity_type, id, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, entity_type, id)
		DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = now()
		RETURNING payload;
	`
	var stored []byte
	if err := r.db.QueryRowContext(ctx, query, userID, entityType, models.PrimaryKey(p), data).Scan(&stored); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	var out models.Payload
	if err := json.Unmarshal(stored, &out); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, entityType, id string) (bool, error) {
	query := `DELETE FROM entities WHERE user_id = $1 AND entity_type = $2 AND id = $3;`

	res, err := r.db.ExecContext(ctx, query, userID, entityType, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) ListAll(ctx context.Context, userID, entityType string) ([]models.Payload, error) {
	query := `
		SELECT payload FROM entities
		WHERE user_id = $1 AND entity_type = $2
		ORDER BY created_at, id;
	`
	rows, err := r.db.QueryContext(ctx, query, userID, entityType)
	if err != nil {
		return nil, fmt.Errorf("failed to select entities: %w", err)
	}
	defer rows.Close()

	result := []models.Payload{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var p models.Payload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
