package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPostgresDSNDefaults(t *testing.T) {
	dsn, err := postgresDSN(Config{
		User: "synergy",
		Name: "synergysphere",
	})
	require.NoError(t, err)
	require.Equal(t, "host=localhost port=5432 user=synergy dbname=synergysphere sslmode=disable", dsn)
}

func TestPostgresDSNWithOptions(t *testing.T) {
	dsn, err := postgresDSN(Config{
		User:     "user",
		Name:     "db",
		Host:     "db.example.com",
		Port:     6543,
		Password: "pass",
		Options: map[string]string{
			"sslmode":     "require",
			"search_path": "public",
		},
	})
	require.NoError(t, err)

	for _, part := range []string{
		"host=db.example.com",
		"port=6543",
		"user=user",
		"dbname=db",
		"password=pass",
		"sslmode=require",
		"search_path=public",
	} {
		require.Contains(t, dsn, part)
	}
}

func TestPostgresDSNRequiresUserAndName(t *testing.T) {
	_, err := postgresDSN(Config{})
	require.Error(t, err)
}

func TestPostgresDSNPassthrough(t *testing.T) {
	dsn, err := postgresDSN(Config{DSN: "postgres://pooler/db"})
	require.NoError(t, err)
	require.Equal(t, "postgres://pooler/db", dsn)
}

func TestMySQLDSNDefaults(t *testing.T) {
	dsn, err := mysqlDSN(Config{
		User: "synergy",
		Name: "synergysphere",
	})
	require.NoError(t, err)
	require.Equal(t, "synergy@tcp(127.0.0.1:3306)/synergysphere?charset=utf8mb4&loc=Local&parseTime=True", dsn)
}

func TestMySQLDSNWithOptions(t *testing.T) {
	dsn, err := mysqlDSN(Config{
		User:     "user",
		Password: "secret",
		Name:     "db",
		Host:     "db.example.com",
		Port:     3307,
		Options: map[string]string{
			"tls": "skip-verify",
		},
	})
	require.NoError(t, err)

	require.Contains(t, dsn, "user:secret@tcp(db.example.com:3307)/db?")
	for _, part := range []string{"charset=utf8mb4", "loc=Local", "parseTime=True", "tls=skip-verify"} {
		require.Contains(t, dsn, part)
	}
}

func TestMySQLDSNRequiresUserAndName(t *testing.T) {
	_, err := mysqlDSN(Config{Host: "localhost"})
	require.Error(t, err)
}
