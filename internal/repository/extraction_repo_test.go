package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/adhyayan-oer/adhyayan-go-api/internal/models"
)

func TestExtractionRepositoryUpsertFlipsReadiness(t *testing.T) {
	db := setupPipelineTestDB(t, &models.ExtractionRecord{})
	repo := NewExtractionRepository(db)
	ctx := context.Background()

	ready, err := repo.IsReady(ctx, 601)
	require.NoError(t, err)
	require.False(t, ready)

	_, err = repo.GetBySubmission(ctx, 601)
	require.ErrorIs(t, err, ErrExtractionMissing)

	require.NoError(t, repo.Upsert(ctx, 601, datatypes.JSON(`{"combined_text": ""}`), false))
	ready, err = repo.IsReady(ctx, 601)
	require.NoError(t, err)
	require.False(t, ready)

	payload := datatypes.JSON(`{"combined_text": "Attention is a weighted average."}`)
	require.NoError(t, repo.Upsert(ctx, 601, payload, true))

	ready, err = repo.IsReady(ctx, 601)
	require.NoError(t, err)
	require.True(t, ready)

	record, err := repo.GetBySubmission(ctx, 601)
	require.NoError(t, err)
	require.JSONEq(t, string(payload), string(record.Payload))

	var count int64
	require.NoError(t, db.Model(&models.ExtractionRecord{}).Where("submission_id = ?", 601).Count(&count).Error)
	require.Equal(t, int64(1), count)
}
