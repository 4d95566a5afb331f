package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrateSettings_databaseURL(t *testing.T) {
	tests := []struct {
		name  string
		dsn   string
		table string
		want  string
	}{
		{
			name: "default table",
			dsn:  "postgres://u:p@localhost:5432/db?sslmode=disable",
			want: "postgres://u:p@localhost:5432/db?sslmode=disable",
		},
		{
			name:  "table appended to query",
			dsn:   "postgres://u:p@localhost:5432/db?sslmode=disable",
			table: "snaplink_migrations",
			want:  "postgres://u:p@localhost:5432/db?sslmode=disable&x-migrations-table=snaplink_migrations",
		},
		{
			name:  "table starts query",
			dsn:   "postgres://u:p@localhost:5432/db",
			table: "schema migrations",
			want:  "postgres://u:p@localhost:5432/db?x-migrations-table=schema+migrations",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := migrateSettings{table: tt.table}

			assert.Equal(t, tt.want, s.databaseURL(tt.dsn))
		})
	}
}

func TestRunMigrations_NoSource(t *testing.T) {
	err := RunMigrations("postgres://u:p@localhost:5432/db?sslmode=disable")

	assert.ErrorContains(t, err, "no migrations source")
}
