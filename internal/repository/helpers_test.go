package repository

import (
	"fmt"
	"strings"
	"testing"

	"contacts/internal/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", name), true)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}
