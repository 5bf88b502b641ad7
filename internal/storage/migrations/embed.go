// Package migrations bootstraps the pipeline's schemas from embedded
// DDL. The ClickHouse side holds the tick data (raw taq_trades and
// taq_quotes, reconstructed events, feature tables); the Postgres side
// holds the trading-day calendar. All files are idempotent so the
// runners can be applied on every start.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// PostgresFS holds the trading_days DDL.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the taq_trades, taq_quotes, events and features DDL.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS

// sqlFiles lists the .sql files under dir in lexical order, which is
// the order the runners apply them in.
func sqlFiles(fsys embed.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func readSQL(fsys embed.FS, path string) (string, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return "", fmt.Errorf("read migration %s: %w", path, err)
	}
	return string(data), nil
}
