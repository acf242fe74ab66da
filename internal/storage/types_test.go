package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutline/careerctx/internal/storage"
)

func TestContentSearchOptions_Normalize(t *testing.T) {
	var opts storage.ContentSearchOptions
	opts.Normalize()
	assert.Equal(t, 5, opts.LimitPerQuery)

	opts = storage.ContentSearchOptions{LimitPerQuery: 500, SimilarityThreshold: 2}
	opts.Normalize()
	assert.Equal(t, 50, opts.LimitPerQuery)
	assert.InDelta(t, 1.0, opts.SimilarityThreshold, 1e-9)

	opts = storage.ContentSearchOptions{LimitPerQuery: 10, SimilarityThreshold: 0.7}
	opts.Normalize()
	assert.Equal(t, 10, opts.LimitPerQuery)
	assert.InDelta(t, 0.7, opts.SimilarityThreshold, 1e-9)
}

func TestParseBackendKind(t *testing.T) {
	kind, err := storage.ParseBackendKind("postgres")
	require.NoError(t, err)
	assert.Equal(t, storage.BackendPostgres, kind)

	kind, err = storage.ParseBackendKind("sqlite")
	require.NoError(t, err)
	assert.Equal(t, storage.BackendSQLite, kind)

	_, err = storage.ParseBackendKind("mysql")
	var unknown *storage.UnknownBackendError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "mysql", unknown.Kind)
	assert.Contains(t, unknown.Error(), "mysql")
}
