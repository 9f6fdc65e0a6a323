package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"cims/internal/db"
	apperrors "cims/internal/errors"
	"cims/internal/testutil"
)

func TestProvider_Ping(t *testing.T) {
	provider := testutil.NewProvider(t)

	for name, err := range provider.Ping(context.Background()) {
		assert.NoError(t, err, name)
	}
}

func TestProvider_PingReportsEachDatabase(t *testing.T) {
	provider := &db.Provider{
		CIMS:    testutil.NewSQLite(t, testutil.CIMSModels...),
		Project: testutil.Closed(t, testutil.ProjectModels...),
	}

	results := provider.Ping(context.Background())

	assert.NoError(t, results["cims"])
	assert.Equal(t, apperrors.KindDatabaseUnavailable, apperrors.KindOf(results["project"]))
}

func TestProvider_CloseNilPools(t *testing.T) {
	assert.NoError(t, (&db.Provider{}).Close())
}
