package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/adhyayan-oer/adhyayan-go-api/internal/models"
)

// seedReleaseCourse creates a course with two chapters and three submissions.
// Submission IDs are courseID*100 + {11, 12, 21}.
func seedReleaseCourse(t *testing.T, db *gorm.DB, courseID uint) (uint, uint, uint) {
	t.Helper()
	require.NoError(t, db.Create(&models.Course{ID: courseID, Code: fmt.Sprintf("ML-%d", courseID), Name: "Deep Learning"}).Error)
	require.NoError(t, db.Create(&models.Chapter{ID: courseID*10 + 1, CourseID: courseID, Number: 1, Name: "Tensors"}).Error)
	require.NoError(t, db.Create(&models.Chapter{ID: courseID*10 + 2, CourseID: courseID, Number: 2, Name: "Autograd"}).Error)

	a, b, c := courseID*100+11, courseID*100+12, courseID*100+21
	require.NoError(t, db.Create(&models.Submission{ID: a, ChapterID: courseID*10 + 1, ContributorID: 1}).Error)
	require.NoError(t, db.Create(&models.Submission{ID: b, ChapterID: courseID*10 + 1, ContributorID: 2}).Error)
	require.NoError(t, db.Create(&models.Submission{ID: c, ChapterID: courseID*10 + 2, ContributorID: 1}).Error)
	return a, b, c
}

func releasedFlag(t *testing.T, db *gorm.DB, submissionID uint) bool {
	t.Helper()
	var state models.ReleaseState
	err := db.Where("submission_id = ?", submissionID).First(&state).Error
	if err == gorm.ErrRecordNotFound {
		return false
	}
	require.NoError(t, err)
	return state.Released
}

func TestReleaseRepositoryApplyReconcilesWholesale(t *testing.T) {
	db := setupPipelineTestDB(t, &models.Course{}, &models.Chapter{}, &models.Submission{}, &models.ReleaseState{})
	repo := NewReleaseRepository(db)
	ctx := context.Background()

	a, b, c := seedReleaseCourse(t, db, 401)

	require.NoError(t, repo.Apply(ctx, 401, []uint{a, c}))
	require.True(t, releasedFlag(t, db, a))
	require.False(t, releasedFlag(t, db, b))
	require.True(t, releasedFlag(t, db, c))

	// A new verdict flips the released set in one call.
	require.NoError(t, repo.Apply(ctx, 401, []uint{b}))
	require.False(t, releasedFlag(t, db, a))
	require.True(t, releasedFlag(t, db, b))
	require.False(t, releasedFlag(t, db, c))

	// An empty verdict withholds everything.
	require.NoError(t, repo.Apply(ctx, 401, nil))
	require.False(t, releasedFlag(t, db, a))
	require.False(t, releasedFlag(t, db, b))
	require.False(t, releasedFlag(t, db, c))
}

func TestReleaseRepositoryApplyScopedToCourse(t *testing.T) {
	db := setupPipelineTestDB(t, &models.Course{}, &models.Chapter{}, &models.Submission{}, &models.ReleaseState{})
	repo := NewReleaseRepository(db)
	ctx := context.Background()

	a, _, _ := seedReleaseCourse(t, db, 402)
	other, _, _ := seedReleaseCourse(t, db, 403)

	require.NoError(t, repo.Apply(ctx, 402, []uint{a}))
	require.NoError(t, repo.Apply(ctx, 403, []uint{other}))

	// Revoking course 403 leaves course 402 releases intact.
	require.NoError(t, repo.Apply(ctx, 403, nil))
	require.True(t, releasedFlag(t, db, a))
	require.False(t, releasedFlag(t, db, other))
}

func TestReleaseRepositoryListBySubmissions(t *testing.T) {
	db := setupPipelineTestDB(t, &models.Course{}, &models.Chapter{}, &models.Submission{}, &models.ReleaseState{})
	repo := NewReleaseRepository(db)
	ctx := context.Background()

	a, b, _ := seedReleaseCourse(t, db, 404)
	require.NoError(t, repo.Apply(ctx, 404, []uint{a}))

	states, err := repo.ListBySubmissions(ctx, []uint{a, b, 99999})
	require.NoError(t, err)
	require.True(t, states[a].Released)
	_, tracked := states[99999]
	require.False(t, tracked)

	empty, err := repo.ListBySubmissions(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestReleaseRepositoryRevokeAllForCourse(t *testing.T) {
	db := setupPipelineTestDB(t, &models.Course{}, &models.Chapter{}, &models.Submission{}, &models.ReleaseState{})
	repo := NewReleaseRepository(db)
	ctx := context.Background()

	a, _, c := seedReleaseCourse(t, db, 405)
	require.NoError(t, repo.Apply(ctx, 405, []uint{a, c}))
	require.NoError(t, repo.RevokeAllForCourse(ctx, 405))
	require.False(t, releasedFlag(t, db, a))
	require.False(t, releasedFlag(t, db, c))
}
