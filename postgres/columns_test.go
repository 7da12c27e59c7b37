package postgres_test

import (
	"testing"

	"github.com/harvard-lil/restnest/postgres"
	"github.com/stretchr/testify/require"
)

func TestColumns(t *testing.T) {
	type widget struct {
		ID        uint `db:"id"`
		Title     string
		OwnerName string
		Secret    string `db:"secret_col"`
	}

	// Act
	cols := postgres.Columns(&widget{})

	// Assert
	require.Equal(t, []string{"id", "title", "owner_name", "secret_col"}, cols)

	// Act + Assert
	require.Nil(t, postgres.Columns(42))
	require.Nil(t, postgres.Columns(nil))
}
