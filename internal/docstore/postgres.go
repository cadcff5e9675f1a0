package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/config"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/docstore/db"
)

// Postgres stores every collection in a single documents table with a jsonb
// body. Predicates translate to expressions over top-level fields.
type Postgres struct {
	db  *sql.DB
	cfg *config.PostgresConfig
}

func NewPostgres(database *sql.DB, cfg *config.PostgresConfig) (*Postgres, error) {
	var err error

	store := &Postgres{
		db:  database,
		cfg: cfg,
	}

	if store.cfg == nil {
		store.cfg, err = config.NewPostgresConfig()
		if err != nil {
			return nil, fmt.Errorf("docstore.NewPostgres: could not load postgres config: %w", err)
		}
	}

	if store.db == nil {
		store.db, err = db.NewPostgresDB(store.cfg)
		if err != nil {
			return nil, fmt.Errorf("docstore.NewPostgres: could not open postgres db: %w", err)
		}
	}

	if store.cfg.AutoMigrateUp == "true" {
		err = store.MigrateUp()
		if err != nil {
			return nil, err
		}
	}

	return store, nil
}

func (s *Postgres) MigrateUp() error {
	err := db.MigrateUp(s.db, s.cfg.MigrationsURL)
	if err != nil {
		return fmt.Errorf("docstore.Postgres.MigrateUp: %w", err)
	}
	return nil
}

func (s *Postgres) MigrateDown() error {
	err := db.MigrateDown(s.db, s.cfg.MigrationsURL)
	if err != nil {
		return fmt.Errorf("docstore.Postgres.MigrateDown: %w", err)
	}
	return nil
}

func (s *Postgres) Close() error {
	return s.db.Close()
}

func (s *Postgres) Get(ctx context.Context, collection, id string, out any) error {
	var raw []byte
	query := `SELECT data FROM documents WHERE collection = $1 AND id = $2`
	err := s.db.QueryRowContext(ctx, query, collection, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return fmt.Errorf("docstore.Postgres.Get: %s/%s: %w", collection, id, ErrNotFound)
	} else if err != nil {
		return fmt.Errorf("docstore.Postgres.Get: %w", err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("docstore.Postgres.Get: %w", err)
	}
	return nil
}

func (s *Postgres) Query(ctx context.Context, collection string, preds []Predicate, out any) error {
	where, args, err := predicateClauses(preds, 2)
	if err != nil {
		return fmt.Errorf("docstore.Postgres.Query: %w", err)
	}

	query := `SELECT data FROM documents WHERE collection = $1` + where
	args = append([]any{collection}, args...)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("docstore.Postgres.Query: %w", err)
	}
	defer rows.Close()

	var docs []json.RawMessage
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return fmt.Errorf("docstore.Postgres.Query: %w", err)
		}
		docs = append(docs, json.RawMessage(raw))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("docstore.Postgres.Query: %w", err)
	}

	// Round-trip through a JSON array so out can be *[]T for any T.
	joined, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("docstore.Postgres.Query: %w", err)
	}
	if err := json.Unmarshal(joined, out); err != nil {
		return fmt.Errorf("docstore.Postgres.Query: %w", err)
	}
	return nil
}

func (s *Postgres) Create(ctx context.Context, collection string, data any) (string, error) {
	id := uuid.NewString()
	doc, err := marshalWithID(data, id)
	if err != nil {
		return "", fmt.Errorf("docstore.Postgres.Create: %w", err)
	}

	query := `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)`
	_, err = s.db.ExecContext(ctx, query, collection, id, doc)
	if err != nil {
		return "", fmt.Errorf("docstore.Postgres.Create: %w", err)
	}
	return id, nil
}

func (s *Postgres) Update(ctx context.Context, collection, id string, data any) error {
	err := s.UpdateWhere(ctx, collection, id, data, nil)
	if err != nil {
		return fmt.Errorf("docstore.Postgres.Update: %w", err)
	}
	return nil
}

func (s *Postgres) UpdateWhere(ctx context.Context, collection, id string, data any, preds []Predicate) error {
	doc, err := marshalWithID(data, id)
	if err != nil {
		return fmt.Errorf("docstore.Postgres.UpdateWhere: %w", err)
	}

	where, args, err := predicateClauses(preds, 4)
	if err != nil {
		return fmt.Errorf("docstore.Postgres.UpdateWhere: %w", err)
	}

	query := `UPDATE documents SET data = $3, updated_at = now() WHERE collection = $1 AND id = $2` + where
	args = append([]any{collection, id, doc}, args...)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("docstore.Postgres.UpdateWhere: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("docstore.Postgres.UpdateWhere: %w", err)
	}
	if n == 0 {
		if len(preds) == 0 {
			return fmt.Errorf("docstore.Postgres.UpdateWhere: %s/%s: %w", collection, id, ErrNotFound)
		}
		// Distinguish a vanished document from a failed condition.
		var exists bool
		check := `SELECT true FROM documents WHERE collection = $1 AND id = $2`
		err = s.db.QueryRowContext(ctx, check, collection, id).Scan(&exists)
		if err == sql.ErrNoRows {
			return fmt.Errorf("docstore.Postgres.UpdateWhere: %s/%s: %w", collection, id, ErrNotFound)
		} else if err != nil {
			return fmt.Errorf("docstore.Postgres.UpdateWhere: %w", err)
		}
		return fmt.Errorf("docstore.Postgres.UpdateWhere: %s/%s: %w", collection, id, ErrConflict)
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, collection, id string) error {
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`
	res, err := s.db.ExecContext(ctx, query, collection, id)
	if err != nil {
		return fmt.Errorf("docstore.Postgres.Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("docstore.Postgres.Delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("docstore.Postgres.Delete: %s/%s: %w", collection, id, ErrNotFound)
	}
	return nil
}

func marshalWithID(data any, id string) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	fields["id"] = id
	return json.Marshal(fields)
}

// predicateClauses renders predicates as SQL, numbering placeholders from
// firstArg.
func predicateClauses(preds []Predicate, firstArg int) (string, []any, error) {
	var sb strings.Builder
	var args []any

	n := firstArg
	for _, p := range preds {
		switch p.Op {
		case OpEqual:
			fmt.Fprintf(&sb, " AND data->>'%s' = $%d", p.Field, n)
			args = append(args, p.Value)
			n++
		case OpIn:
			values, ok := p.Value.([]string)
			if !ok {
				return "", nil, fmt.Errorf("predicate %q: OpIn requires []string", p.Field)
			}
			fmt.Fprintf(&sb, " AND data->>'%s' = ANY($%d)", p.Field, n)
			args = append(args, pq.Array(values))
			n++
		case OpAbsent:
			fmt.Fprintf(&sb, " AND (data->>'%s' IS NULL OR data->>'%s' = '')", p.Field, p.Field)
		default:
			return "", nil, fmt.Errorf("unsupported predicate op %q", p.Op)
		}
	}
	return sb.String(), args, nil
}
