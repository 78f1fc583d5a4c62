package dialect

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	tests := map[string]Dialect{
		"mysql":    MySQL,
		"postgres": Postgres,
		"pgx":      Postgres,
		"sqlite":   SQLite,
	}
	for driver, want := range tests {
		got, err := For(driver)
		require.NoError(t, err, driver)
		require.Equal(t, want, got, driver)
	}

	_, err := For("oracle")
	require.ErrorContains(t, err, "unsupported driver")
}

func TestRebind(t *testing.T) {
	query := "INSERT INTO t (a, b) VALUES (?, ?), (?, ?)"

	require.Equal(t, query, MySQL.Rebind(query))
	require.Equal(t, query, SQLite.Rebind(query))
	require.Equal(t, "INSERT INTO t (a, b) VALUES ($1, $2), ($3, $4)", Postgres.Rebind(query))
}

func TestSwapStatements(t *testing.T) {
	require.Equal(t, []string{
		"DROP TABLE IF EXISTS dim_customer",
		"ALTER TABLE dim_customer_stg_ab12 RENAME TO dim_customer",
	}, Postgres.SwapStatements("dim_customer", "dim_customer_stg_ab12"))

	mysql := MySQL.SwapStatements("dim_customer", "dim_customer_stg_ab12")
	require.Len(t, mysql, 4)
	require.Equal(t, "RENAME TABLE dim_customer TO dim_customer_old, dim_customer_stg_ab12 TO dim_customer", mysql[2])
	require.False(t, MySQL.TransactionalDDL())
	require.True(t, SQLite.TransactionalDDL())
}

func TestAutoIncrementKey(t *testing.T) {
	require.Equal(t, "sk BIGSERIAL PRIMARY KEY", Postgres.AutoIncrementKey("sk"))
	require.Equal(t, "sk BIGINT AUTO_INCREMENT PRIMARY KEY", MySQL.AutoIncrementKey("sk"))
	require.Equal(t, "sk INTEGER PRIMARY KEY AUTOINCREMENT", SQLite.AutoIncrementKey("sk"))
}
