package service

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/adhyayan-oer/adhyayan-go-api/internal/models"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/repository"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/scoring"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func f64(v float64) *float64 {
	return &v
}

// fakeChapterRepo serves chapters and policies from memory.
type fakeChapterRepo struct {
	chapters map[uint]models.Chapter
	policies map[uint]*models.ChapterPolicy
	due      []models.ChapterPolicy
}

func newFakeChapterRepo() *fakeChapterRepo {
	return &fakeChapterRepo{
		chapters: map[uint]models.Chapter{},
		policies: map[uint]*models.ChapterPolicy{},
	}
}

func (f *fakeChapterRepo) GetByID(_ context.Context, id uint) (models.Chapter, error) {
	chapter, ok := f.chapters[id]
	if !ok {
		return models.Chapter{}, gorm.ErrRecordNotFound
	}
	return chapter, nil
}

func (f *fakeChapterRepo) GetPolicy(_ context.Context, chapterID uint) (*models.ChapterPolicy, error) {
	return f.policies[chapterID], nil
}

func (f *fakeChapterRepo) SavePolicy(_ context.Context, policy *models.ChapterPolicy) error {
	f.policies[policy.ChapterID] = policy
	return nil
}

func (f *fakeChapterRepo) ListDuePolicies(_ context.Context, _ time.Time) ([]models.ChapterPolicy, error) {
	return f.due, nil
}

func (f *fakeChapterRepo) ExtendDeadline(context.Context, uint, time.Time, *uint, string) error {
	return nil
}

type fakeSubmissionRepo struct {
	submissions []models.Submission
	idsByCourse map[uint][]uint
}

func (f *fakeSubmissionRepo) List(_ context.Context, filter repository.SubmissionFilter) ([]models.Submission, error) {
	out := make([]models.Submission, 0, len(f.submissions))
	for _, s := range f.submissions {
		if filter.ChapterID != nil && s.ChapterID != *filter.ChapterID {
			continue
		}
		if filter.ContributorID != nil && s.ContributorID != *filter.ContributorID {
			continue
		}
		if filter.EvaluatedOnly && !s.Evaluated {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSubmissionRepo) GetByID(_ context.Context, id uint) (models.Submission, error) {
	for _, s := range f.submissions {
		if s.ID == id {
			return s, nil
		}
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (f *fakeSubmissionRepo) Create(_ context.Context, submission *models.Submission) error {
	f.submissions = append(f.submissions, *submission)
	return nil
}

func (f *fakeSubmissionRepo) SetEvaluated(_ context.Context, id uint, evaluated bool) error {
	for i := range f.submissions {
		if f.submissions[i].ID == id {
			f.submissions[i].Evaluated = evaluated
		}
	}
	return nil
}

func (f *fakeSubmissionRepo) CountEvaluated(_ context.Context, chapterID uint) (int64, error) {
	var n int64
	for _, s := range f.submissions {
		if s.ChapterID == chapterID && s.Evaluated {
			n++
		}
	}
	return n, nil
}

func (f *fakeSubmissionRepo) ListIDsByCourse(_ context.Context, courseID uint) ([]uint, error) {
	return f.idsByCourse[courseID], nil
}

type dimWrite struct {
	SubmissionID uint
	Dimension    scoring.Dimension
	Value        float64
}

type fakeScoreRepo struct {
	byChapter    map[uint][]models.ScoreRecord
	bySubmission map[uint]models.ScoreRecord
	winners      map[uint]uint
	writes       []dimWrite
	writeErr     error
}

func newFakeScoreRepo() *fakeScoreRepo {
	return &fakeScoreRepo{
		byChapter:    map[uint][]models.ScoreRecord{},
		bySubmission: map[uint]models.ScoreRecord{},
		winners:      map[uint]uint{},
	}
}

func (f *fakeScoreRepo) GetBySubmission(_ context.Context, submissionID uint) (models.ScoreRecord, error) {
	record, ok := f.bySubmission[submissionID]
	if !ok {
		return models.ScoreRecord{}, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (f *fakeScoreRepo) ListByChapter(_ context.Context, chapterID uint) ([]models.ScoreRecord, error) {
	return f.byChapter[chapterID], nil
}

func (f *fakeScoreRepo) WriteDimension(_ context.Context, submissionID uint, dim scoring.Dimension, value float64) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	record := f.bySubmission[submissionID]
	record.SubmissionID = submissionID
	v := value
	switch dim {
	case scoring.DimensionClarity:
		record.Clarity = &v
	case scoring.DimensionCoherence:
		record.Coherence = &v
	case scoring.DimensionCompleteness:
		record.Completeness = &v
	case scoring.DimensionAccuracy:
		record.Accuracy = &v
	case scoring.DimensionEngagement:
		record.Engagement = &v
	}
	f.bySubmission[submissionID] = record
	f.writes = append(f.writes, dimWrite{SubmissionID: submissionID, Dimension: dim, Value: value})
	return nil
}

func (f *fakeScoreRepo) WinnerSubmissionID(_ context.Context, chapterID uint) (uint, error) {
	return f.winners[chapterID], nil
}

type fakeDecisionRepo struct {
	persisted []repository.DecisionOutcome
	latest    map[uint]*models.DecisionRun
	runs      map[uint][]models.DecisionRun
}

func newFakeDecisionRepo() *fakeDecisionRepo {
	return &fakeDecisionRepo{
		latest: map[uint]*models.DecisionRun{},
		runs:   map[uint][]models.DecisionRun{},
	}
}

func (f *fakeDecisionRepo) Persist(_ context.Context, outcome repository.DecisionOutcome) error {
	f.persisted = append(f.persisted, outcome)
	if outcome.Run != nil {
		run := *outcome.Run
		f.latest[outcome.ChapterID] = &run
		f.runs[outcome.ChapterID] = append([]models.DecisionRun{run}, f.runs[outcome.ChapterID]...)
	}
	return nil
}

func (f *fakeDecisionRepo) LatestByChapter(_ context.Context, chapterID uint) (*models.DecisionRun, error) {
	return f.latest[chapterID], nil
}

func (f *fakeDecisionRepo) ListByChapter(_ context.Context, chapterID uint, limit int) ([]models.DecisionRun, error) {
	runs := f.runs[chapterID]
	if limit > 0 && limit < len(runs) {
		runs = runs[:limit]
	}
	return runs, nil
}

type fakeEventBus struct {
	scores    []ScoresCompletedEvent
	decisions []DecisionCompletedEvent
}

func (f *fakeEventBus) PublishScoresCompleted(_ context.Context, event ScoresCompletedEvent) error {
	f.scores = append(f.scores, event)
	return nil
}

func (f *fakeEventBus) PublishDecisionCompleted(_ context.Context, event DecisionCompletedEvent) error {
	f.decisions = append(f.decisions, event)
	return nil
}

type decisionFixture struct {
	chapters  *fakeChapterRepo
	subs      *fakeSubmissionRepo
	scores    *fakeScoreRepo
	decisions *fakeDecisionRepo
	bus       *fakeEventBus
	svc       DecisionService
}

func newDecisionFixture(cfg DecisionConfig) *decisionFixture {
	fx := &decisionFixture{
		chapters:  newFakeChapterRepo(),
		subs:      &fakeSubmissionRepo{},
		scores:    newFakeScoreRepo(),
		decisions: newFakeDecisionRepo(),
		bus:       &fakeEventBus{},
	}
	fx.svc = NewDecisionService(fx.chapters, fx.subs, fx.scores, fx.decisions, fx.bus, cfg, testLogger())
	return fx
}

func (fx *decisionFixture) seedChapter(chapterID, courseID uint, deadline *time.Time, minContributions int) {
	fx.chapters.chapters[chapterID] = models.Chapter{ID: chapterID, CourseID: courseID, Number: int(chapterID), Name: "Chapter"}
	fx.chapters.policies[chapterID] = &models.ChapterPolicy{
		ChapterID:        chapterID,
		Deadline:         deadline,
		CurrentDeadline:  deadline,
		MinContributions: minContributions,
	}
}

func (fx *decisionFixture) seedCandidate(chapterID, submissionID uint, createdAt time.Time, record models.ScoreRecord) {
	fx.subs.submissions = append(fx.subs.submissions, models.Submission{
		ID:            submissionID,
		ChapterID:     chapterID,
		ContributorID: submissionID * 10,
		Evaluated:     true,
		CreatedAt:     createdAt,
	})
	record.SubmissionID = submissionID
	fx.scores.byChapter[chapterID] = append(fx.scores.byChapter[chapterID], record)
}

func pastDeadline() *time.Time {
	d := time.Now().Add(-time.Hour)
	return &d
}

func futureDeadline() *time.Time {
	d := time.Now().Add(time.Hour)
	return &d
}

func TestDecideChapterNotFound(t *testing.T) {
	fx := newDecisionFixture(DecisionConfig{})

	_, err := fx.svc.Decide(context.Background(), 99, DefaultDecisionOptions())
	require.ErrorIs(t, err, ErrChapterNotFound)
}

func TestDecideBeforeDeadline(t *testing.T) {
	fx := newDecisionFixture(DecisionConfig{})
	fx.seedChapter(1, 7, futureDeadline(), 1)

	run, err := fx.svc.Decide(context.Background(), 1, DefaultDecisionOptions())
	require.NoError(t, err)
	require.Equal(t, models.DecisionStatusNotDue, run.Status)
	require.Equal(t, "deadline_not_passed", run.Explanation)
	require.Nil(t, run.SelectedSubmissionID)

	// The audit row is still written, without a winner.
	require.Len(t, fx.decisions.persisted, 1)
	require.Zero(t, fx.decisions.persisted[0].WinnerSubmissionID)
}

func TestDecideForceOverridesDeadline(t *testing.T) {
	fx := newDecisionFixture(DecisionConfig{})
	fx.seedChapter(1, 7, futureDeadline(), 1)
	fx.seedCandidate(1, 11, time.Now().Add(-2*time.Hour), models.ScoreRecord{
		Clarity: f64(8), Coherence: f64(7), Completeness: f64(6), Accuracy: f64(9), Engagement: f64(5),
	})

	opts := DefaultDecisionOptions()
	opts.Force = true
	run, err := fx.svc.Decide(context.Background(), 1, opts)
	require.NoError(t, err)
	require.Equal(t, models.DecisionStatusOK, run.Status)
	require.Equal(t, "selected", run.Explanation)
	require.NotNil(t, run.SelectedSubmissionID)
	require.Equal(t, uint(11), *run.SelectedSubmissionID)
	require.InDelta(t, 7.0, *run.CompositeScore, 1e-9)
}

func TestDecideMinContributionsGate(t *testing.T) {
	fx := newDecisionFixture(DecisionConfig{})
	fx.seedChapter(1, 7, pastDeadline(), 3)
	fx.seedCandidate(1, 11, time.Now(), models.ScoreRecord{Clarity: f64(8)})

	run, err := fx.svc.Decide(context.Background(), 1, DefaultDecisionOptions())
	require.NoError(t, err)
	require.Equal(t, models.DecisionStatusNotReady, run.Status)
	require.Equal(t, "min_contributions_not_met: 1/3", run.Explanation)

	// The gate can be bypassed explicitly.
	opts := DefaultDecisionOptions()
	opts.RespectMinContributions = false
	run, err = fx.svc.Decide(context.Background(), 1, opts)
	require.NoError(t, err)
	require.Equal(t, models.DecisionStatusOK, run.Status)
}

func TestDecideNoScoredCandidates(t *testing.T) {
	fx := newDecisionFixture(DecisionConfig{})
	fx.seedChapter(1, 7, pastDeadline(), 1)
	// All dimensions nil: zero denominator excludes the candidate.
	fx.seedCandidate(1, 11, time.Now(), models.ScoreRecord{})

	run, err := fx.svc.Decide(context.Background(), 1, DefaultDecisionOptions())
	require.NoError(t, err)
	require.Equal(t, models.DecisionStatusNoCandidates, run.Status)
	require.Equal(t, "no_scored_submissions", run.Explanation)
}

func TestDecideTieBreakOnPriorityDimensions(t *testing.T) {
	fx := newDecisionFixture(DecisionConfig{})
	fx.seedChapter(1, 7, pastDeadline(), 1)

	base := time.Now().Add(-time.Hour)
	// Equal composites (6.2). Accuracy outranks completeness in the
	// tie-break order, so submission 11 must win.
	fx.seedCandidate(1, 11, base, models.ScoreRecord{
		Clarity: f64(5), Coherence: f64(5), Completeness: f64(7), Accuracy: f64(9), Engagement: f64(5),
	})
	fx.seedCandidate(1, 12, base.Add(time.Minute), models.ScoreRecord{
		Clarity: f64(5), Coherence: f64(5), Completeness: f64(9), Accuracy: f64(7), Engagement: f64(5),
	})

	run, err := fx.svc.Decide(context.Background(), 1, DefaultDecisionOptions())
	require.NoError(t, err)
	require.Equal(t, models.DecisionStatusOK, run.Status)
	require.Equal(t, uint(11), *run.SelectedSubmissionID)
}

func TestDecideRecomputeIsDeterministic(t *testing.T) {
	fx := newDecisionFixture(DecisionConfig{})
	fx.seedChapter(1, 7, pastDeadline(), 1)

	created := time.Now().Add(-time.Hour)
	// Submissions 11 and 12 tie on composite (6.2) and share a creation
	// time, forcing the ranking through every tie-break stage.
	fx.seedCandidate(1, 11, created, models.ScoreRecord{
		Clarity: f64(5), Coherence: f64(5), Completeness: f64(7), Accuracy: f64(9), Engagement: f64(5),
	})
	fx.seedCandidate(1, 12, created, models.ScoreRecord{
		Clarity: f64(5), Coherence: f64(5), Completeness: f64(9), Accuracy: f64(7), Engagement: f64(5),
	})
	fx.seedCandidate(1, 13, created, models.ScoreRecord{
		Clarity: f64(4), Coherence: f64(4), Completeness: f64(4), Accuracy: f64(4), Engagement: f64(4),
	})

	first, err := fx.svc.Decide(context.Background(), 1, DefaultDecisionOptions())
	require.NoError(t, err)
	require.Equal(t, models.DecisionStatusOK, first.Status)

	second, err := fx.svc.Decide(context.Background(), 1, DefaultDecisionOptions())
	require.NoError(t, err)

	// Recomputing over identical inputs lands on the same winner, the same
	// composite and an identically ordered ranking.
	require.Equal(t, uint(11), *first.SelectedSubmissionID)
	require.Equal(t, *first.SelectedSubmissionID, *second.SelectedSubmissionID)
	require.Equal(t, *first.CompositeScore, *second.CompositeScore)
	require.JSONEq(t, string(first.Ranking), string(second.Ranking))
}

func TestDecideMissingPolicyZeroPenalises(t *testing.T) {
	seed := func(fx *decisionFixture) {
		fx.seedChapter(1, 7, pastDeadline(), 1)
		fx.seedCandidate(1, 11, time.Now().Add(-time.Hour), models.ScoreRecord{
			Clarity: f64(6), Coherence: f64(6), Completeness: f64(6), Accuracy: f64(6), Engagement: f64(6),
		})
		// Submission 12 has a single high dimension.
		fx.seedCandidate(1, 12, time.Now(), models.ScoreRecord{Accuracy: f64(10)})
	}

	ignore := newDecisionFixture(DecisionConfig{MissingPolicy: MissingPolicyIgnore})
	seed(ignore)
	run, err := ignore.svc.Decide(context.Background(), 1, DefaultDecisionOptions())
	require.NoError(t, err)
	require.Equal(t, uint(12), *run.SelectedSubmissionID)
	require.InDelta(t, 10.0, *run.CompositeScore, 1e-9)

	zero := newDecisionFixture(DecisionConfig{MissingPolicy: MissingPolicyZero})
	seed(zero)
	run, err = zero.svc.Decide(context.Background(), 1, DefaultDecisionOptions())
	require.NoError(t, err)
	// Missing dimensions now count against the composite: 10/5 = 2.
	require.Equal(t, uint(11), *run.SelectedSubmissionID)
	require.InDelta(t, 6.0, *run.CompositeScore, 1e-9)
}

func TestDecideWeightedComposite(t *testing.T) {
	fx := newDecisionFixture(DecisionConfig{
		Weights: map[scoring.Dimension]float64{scoring.DimensionAccuracy: 3},
	})
	fx.seedChapter(1, 7, pastDeadline(), 1)
	fx.seedCandidate(1, 11, time.Now().Add(-time.Hour), models.ScoreRecord{
		Clarity: f64(9), Coherence: f64(9), Completeness: f64(9), Accuracy: f64(4), Engagement: f64(9),
	})
	fx.seedCandidate(1, 12, time.Now(), models.ScoreRecord{
		Clarity: f64(7), Coherence: f64(7), Completeness: f64(7), Accuracy: f64(8), Engagement: f64(7),
	})

	run, err := fx.svc.Decide(context.Background(), 1, DefaultDecisionOptions())
	require.NoError(t, err)
	// Tripled accuracy weight: 11 scores (36+12)/7 = 6.857, 12 scores (28+24)/7 = 7.43.
	require.Equal(t, uint(12), *run.SelectedSubmissionID)

	// The same data under simple_average flips the winner.
	opts := DefaultDecisionOptions()
	opts.Strategy = models.StrategySimpleAverage
	run, err = fx.svc.Decide(context.Background(), 1, opts)
	require.NoError(t, err)
	require.Equal(t, uint(11), *run.SelectedSubmissionID)
}

func TestDecideDryRunSkipsPersistAndEvents(t *testing.T) {
	fx := newDecisionFixture(DecisionConfig{})
	fx.seedChapter(1, 7, pastDeadline(), 1)
	fx.seedCandidate(1, 11, time.Now(), models.ScoreRecord{Clarity: f64(8)})

	opts := DefaultDecisionOptions()
	opts.Persist = false
	run, err := fx.svc.Decide(context.Background(), 1, opts)
	require.NoError(t, err)
	require.Equal(t, models.DecisionStatusOK, run.Status)
	require.Empty(t, fx.decisions.persisted)
	require.Empty(t, fx.bus.decisions)
}

func TestDecidePersistsWinnerAndPublishes(t *testing.T) {
	fx := newDecisionFixture(DecisionConfig{})
	fx.seedChapter(1, 7, pastDeadline(), 1)
	fx.seedCandidate(1, 11, time.Now(), models.ScoreRecord{Clarity: f64(8)})

	autoRelease := true
	opts := DefaultDecisionOptions()
	opts.AutoRelease = &autoRelease
	run, err := fx.svc.Decide(context.Background(), 1, opts)
	require.NoError(t, err)
	require.True(t, run.IsLatest)
	require.NotEmpty(t, run.RunID)

	require.Len(t, fx.decisions.persisted, 1)
	outcome := fx.decisions.persisted[0]
	require.Equal(t, uint(1), outcome.ChapterID)
	require.Equal(t, uint(11), outcome.WinnerSubmissionID)
	require.True(t, outcome.AutoRelease)
	require.NotNil(t, outcome.Run)

	require.Len(t, fx.bus.decisions, 1)
	event := fx.bus.decisions[0]
	require.Equal(t, uint(1), event.ChapterID)
	require.Equal(t, uint(7), event.CourseID)
	require.Equal(t, run.RunID, event.RunID)
	require.Equal(t, models.DecisionStatusOK, event.Status)
	require.Equal(t, uint(11), *event.SelectedSubmissionID)
}

func TestDecideTopKBoundsRanking(t *testing.T) {
	fx := newDecisionFixture(DecisionConfig{})
	fx.seedChapter(1, 7, pastDeadline(), 1)
	for i := uint(1); i <= 5; i++ {
		fx.seedCandidate(1, 10+i, time.Now().Add(-time.Duration(i)*time.Minute), models.ScoreRecord{
			Clarity: f64(float64(i)),
		})
	}

	opts := DefaultDecisionOptions()
	opts.TopK = 2
	run, err := fx.svc.Decide(context.Background(), 1, opts)
	require.NoError(t, err)
	require.Equal(t, uint(15), *run.SelectedSubmissionID)

	var leaderboard []map[string]interface{}
	require.NoError(t, json.Unmarshal(run.Ranking, &leaderboard))
	require.Len(t, leaderboard, 2)
}

func TestTriggerIfDueGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("open deadline skips", func(t *testing.T) {
		fx := newDecisionFixture(DecisionConfig{})
		fx.seedChapter(1, 7, futureDeadline(), 1)

		run, err := fx.svc.TriggerIfDue(ctx, 1)
		require.NoError(t, err)
		require.Nil(t, run)
	})

	t.Run("below minimum skips", func(t *testing.T) {
		fx := newDecisionFixture(DecisionConfig{})
		fx.seedChapter(1, 7, pastDeadline(), 2)
		fx.seedCandidate(1, 11, time.Now(), models.ScoreRecord{Clarity: f64(8)})

		run, err := fx.svc.TriggerIfDue(ctx, 1)
		require.NoError(t, err)
		require.Nil(t, run)
	})

	t.Run("settled chapter skips", func(t *testing.T) {
		fx := newDecisionFixture(DecisionConfig{})
		fx.seedChapter(1, 7, pastDeadline(), 1)
		fx.seedCandidate(1, 11, time.Now(), models.ScoreRecord{Clarity: f64(8)})
		winner := uint(11)
		fx.decisions.latest[1] = &models.DecisionRun{
			Status:               models.DecisionStatusOK,
			SelectedSubmissionID: &winner,
		}

		run, err := fx.svc.TriggerIfDue(ctx, 1)
		require.NoError(t, err)
		require.Nil(t, run)
	})

	t.Run("due chapter decides", func(t *testing.T) {
		fx := newDecisionFixture(DecisionConfig{})
		fx.seedChapter(1, 7, pastDeadline(), 1)
		fx.seedCandidate(1, 11, time.Now(), models.ScoreRecord{Clarity: f64(8)})

		run, err := fx.svc.TriggerIfDue(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, run)
		require.Equal(t, models.DecisionStatusOK, run.Status)
		require.Equal(t, uint(11), *run.SelectedSubmissionID)
	})
}

func TestDecideAllDueContinuesPastFailures(t *testing.T) {
	fx := newDecisionFixture(DecisionConfig{})
	fx.seedChapter(1, 7, pastDeadline(), 1)
	fx.seedCandidate(1, 11, time.Now(), models.ScoreRecord{Clarity: f64(8)})

	// Chapter 2 has a due policy but no chapter row behind it.
	missing := pastDeadline()
	fx.chapters.policies[2] = &models.ChapterPolicy{ChapterID: 2, CurrentDeadline: missing, MinContributions: 0}
	fx.subs.submissions = append(fx.subs.submissions, models.Submission{ID: 21, ChapterID: 2, Evaluated: true})

	fx.chapters.due = []models.ChapterPolicy{
		*fx.chapters.policies[2],
		*fx.chapters.policies[1],
	}

	runs, err := fx.svc.DecideAllDue(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, uint(1), runs[0].ChapterID)
}

func TestDecideAllDueHonoursCap(t *testing.T) {
	fx := newDecisionFixture(DecisionConfig{})
	for id := uint(1); id <= 3; id++ {
		fx.seedChapter(id, 7, pastDeadline(), 1)
		fx.seedCandidate(id, id*10, time.Now(), models.ScoreRecord{Clarity: f64(8)})
		fx.chapters.due = append(fx.chapters.due, *fx.chapters.policies[id])
	}

	runs, err := fx.svc.DecideAllDue(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
}
