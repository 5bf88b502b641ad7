package clickhouse

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a ClickHouse container and returns a connection.
// Returns a cleanup function that must be called when done.
func setupTestDB(t *testing.T) (*Conn, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.1-alpine",
		ExposedPorts: []string{"9000/tcp", "8123/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Application: Ready for connections").
				WithStartupTimeout(60 * time.Second),
			wait.ForListeningPort("9000/tcp"),
		),
		Env: map[string]string{
			"CLICKHOUSE_DB":       "test",
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "",
		},
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	dsn := fmt.Sprintf("clickhouse://%s:%s/test", host, port.Port())

	conn, err := NewConn(ctx, dsn)
	require.NoError(t, err)

	applySchema(t, conn)

	cleanup := func() {
		conn.Close()
		_ = container.Terminate(ctx)
	}

	return conn, cleanup
}

// applySchema creates the TAQ tables. Statements mirror the embedded
// migration files; the driver cannot multiquery, so one Exec each.
func applySchema(t *testing.T, conn *Conn) {
	t.Helper()
	ctx := context.Background()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS taq_trades (
			date                    String,
			seq                     UInt32,
			participant_timestamp   Int64,
			symbol                  String,
			exchange                String,
			trade_price             Float64,
			trade_volume            Float64,
			reporting_facility      String
		) ENGINE = MergeTree()
		ORDER BY (symbol, date, seq)`,

		`CREATE TABLE IF NOT EXISTS taq_quotes (
			date                    String,
			seq                     UInt32,
			participant_timestamp   Int64,
			symbol                  String,
			exchange                String,
			bid_price               Float64,
			bid_size                Float64,
			offer_price             Float64,
			offer_size              Float64
		) ENGINE = MergeTree()
		ORDER BY (symbol, date, seq)`,

		`CREATE TABLE IF NOT EXISTS events (
			symbol          String,
			date            String,
			seq             UInt32,
			timestamp       Int64,
			kind            String,
			trade_price     Nullable(Float64),
			trade_volume    Nullable(Float64),
			bid_price       Nullable(Float64),
			bid_size        Nullable(Float64),
			offer_price     Nullable(Float64),
			offer_size      Nullable(Float64),
			group_id        Int64,
			active          UInt8,
			trade_side      Nullable(Float64),
			mid_price       Nullable(Float64),
			ofi_event       Nullable(Float64)
		) ENGINE = MergeTree()
		ORDER BY (symbol, date, seq)`,

		`CREATE TABLE IF NOT EXISTS features (
			symbol      String,
			date        String,
			seq         UInt32,
			timestamp   Int64,
			name        String,
			value       Nullable(Float64)
		) ENGINE = MergeTree()
		ORDER BY (symbol, date, name, seq)`,
	}

	for _, stmt := range statements {
		require.NoError(t, conn.Exec(ctx, stmt))
	}
}
