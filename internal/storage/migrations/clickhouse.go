package migrations

import (
	"context"
	"fmt"
	"strings"

	chstore "github.com/AMS-QF/TAQ-Data/internal/storage/clickhouse"
)

// RunClickhouseMigrations bootstraps the tick database: it creates the
// database the DSN names if missing, applies the embedded DDL for the
// raw taq_* tables and the events and features tables, and returns a
// connection to the migrated database for the stores to reuse.
func RunClickhouseMigrations(ctx context.Context, dsn string) (*chstore.Conn, error) {
	dbName, err := chstore.DatabaseFromDSN(dsn)
	if err != nil {
		return nil, err
	}

	// The target database may not exist yet, so the CREATE DATABASE
	// runs on a connection to the server default.
	adminConn, err := chstore.NewConnWithDatabase(ctx, dsn, "")
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse admin: %w", err)
	}
	if err := adminConn.Exec(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", dbName)); err != nil {
		adminConn.Close()
		return nil, fmt.Errorf("create database %s: %w", dbName, err)
	}
	if err := adminConn.Close(); err != nil {
		return nil, fmt.Errorf("close admin connection: %w", err)
	}

	conn, err := chstore.NewConnWithDatabase(ctx, dsn, dbName)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse db: %w", err)
	}

	files, err := sqlFiles(ClickhouseFS, "clickhouse")
	if err != nil {
		conn.Close()
		return nil, err
	}

	for _, file := range files {
		data, err := readSQL(ClickhouseFS, "clickhouse/"+file)
		if err != nil {
			conn.Close()
			return nil, err
		}

		// The driver rejects multi-statement Exec, so each file is
		// split and applied statement by statement.
		stmts, err := splitStatements(data)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("parse migration %s: %w", file, err)
		}
		for _, stmt := range stmts {
			if err := conn.Exec(ctx, stmt); err != nil {
				conn.Close()
				return nil, fmt.Errorf("apply migration %s: %w", file, err)
			}
		}
	}

	return conn, nil
}

// splitStatements splits a DDL file into statements on semicolons after
// stripping -- comments. The table definitions carry no string
// literals; a quoted semicolon would silently truncate a statement, so
// any semicolon inside single quotes is rejected rather than parsed.
func splitStatements(input string) ([]string, error) {
	var body []byte
	inString := false
	for i := 0; i < len(input); i++ {
		// Drop -- comments outside strings up to end of line.
		if !inString && input[i] == '-' && i+1 < len(input) && input[i+1] == '-' {
			for i < len(input) && input[i] != '\n' {
				i++
			}
			if i == len(input) {
				break
			}
		}
		ch := input[i]
		if ch == '\'' {
			// '' escapes a quote inside a string.
			if inString && i+1 < len(input) && input[i+1] == '\'' {
				body = append(body, ch, ch)
				i++
				continue
			}
			inString = !inString
		}
		if ch == ';' && inString {
			return nil, fmt.Errorf("semicolon inside string literal")
		}
		body = append(body, ch)
	}
	if inString {
		return nil, fmt.Errorf("unterminated string literal")
	}

	var stmts []string
	for _, part := range strings.Split(string(body), ";") {
		if part = strings.TrimSpace(part); part != "" {
			stmts = append(stmts, part)
		}
	}
	return stmts, nil
}
