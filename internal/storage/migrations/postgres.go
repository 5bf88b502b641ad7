package migrations

import (
	"context"
	"fmt"
	"strings"

	"github.com/AMS-QF/TAQ-Data/internal/storage/postgres"
)

// RunPostgresMigrations applies the embedded calendar DDL. Postgres
// accepts multi-statement Exec, so each file runs as a single call.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := sqlFiles(PostgresFS, "postgres")
	if err != nil {
		return err
	}

	for _, file := range files {
		data, err := readSQL(PostgresFS, "postgres/"+file)
		if err != nil {
			return err
		}
		if strings.TrimSpace(data) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, data); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
	}

	return nil
}
