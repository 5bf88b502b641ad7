package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	input := `-- raw trades
CREATE TABLE IF NOT EXISTS taq_trades (id UInt32);

CREATE TABLE IF NOT EXISTS taq_quotes (
    id UInt32 -- arrival order
);
`
	stmts, err := splitStatements(input)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "taq_trades")
	assert.Contains(t, stmts[1], "taq_quotes")
	assert.NotContains(t, stmts[1], "arrival order")
}

func TestSplitStatementsStringLiterals(t *testing.T) {
	stmts, err := splitStatements(`SELECT 'a''b' AS v; SELECT 'c'`)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Equal(t, `SELECT 'a''b' AS v`, stmts[0])

	_, err = splitStatements(`SELECT 'a;b'`)
	assert.ErrorContains(t, err, "semicolon inside string literal")

	_, err = splitStatements(`SELECT 'unterminated`)
	assert.ErrorContains(t, err, "unterminated string literal")
}

func TestEmbeddedClickhouseDDLParses(t *testing.T) {
	files, err := sqlFiles(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	require.Equal(t, []string{"0001_taq.sql", "0002_events.sql", "0003_features.sql"}, files)

	for _, file := range files {
		data, err := readSQL(ClickhouseFS, "clickhouse/"+file)
		require.NoError(t, err)
		stmts, err := splitStatements(data)
		require.NoError(t, err, file)
		assert.NotEmpty(t, stmts, file)
	}
}

func TestEmbeddedPostgresDDL(t *testing.T) {
	files, err := sqlFiles(PostgresFS, "postgres")
	require.NoError(t, err)
	require.Equal(t, []string{"0001_trading_days.sql"}, files)
}
