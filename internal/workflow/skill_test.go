package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

func quiz(n int) models.QuizQuestions {
	qs := make(models.QuizQuestions, n)
	for i := range qs {
		qs[i] = models.QuizQuestion{Question: "q", Options: []string{"a", "b", "c"}, CorrectIndex: i % 3}
	}
	return qs
}

func TestScoreQuizAllCorrectPasses(t *testing.T) {
	qs := quiz(4)
	score, err := ScoreQuiz(qs, []int{0, 1, 2, 0})
	require.NoError(t, err)
	assert.Equal(t, QuizScore{Correct: 4, Total: 4, Score: 100}, score)

	e, passed := ApplyQuizResult(models.SkillEnrollment{}, models.RoundQuiz, score.Score, 100)
	assert.True(t, passed)
	assert.True(t, e.Round2Completed)
	require.NotNil(t, e.Round2Score)
	assert.Equal(t, 100, *e.Round2Score)
}

func TestScoreQuizRounds(t *testing.T) {
	score, err := ScoreQuiz(quiz(3), []int{0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, score.Correct)
	assert.Equal(t, 33, score.Score)

	score, err = ScoreQuiz(quiz(3), []int{0, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, 67, score.Score)
}

func TestScoreQuizCountsMissingAnswersAsWrong(t *testing.T) {
	score, err := ScoreQuiz(quiz(3), []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, QuizScore{Correct: 2, Total: 3, Score: 67}, score)

	score, err = ScoreQuiz(quiz(2), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, score.Score)

	score, err = ScoreQuiz(quiz(2), []int{0, 1, 2, 2})
	require.NoError(t, err)
	assert.Equal(t, QuizScore{Correct: 2, Total: 2, Score: 100}, score)

	_, err = ScoreQuiz(nil, nil)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestQuizGating(t *testing.T) {
	err := RequireQuizUnlocked(models.EnrollmentProgress{}, models.RoundQuiz)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "complete round 1 first")

	err = RequireQuizUnlocked(models.EnrollmentProgress{Round1Completed: true, Round2Completed: true}, models.RoundFinalQuiz)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "complete round 3 first")

	assert.NoError(t, RequireQuizUnlocked(models.EnrollmentProgress{Round3Approved: true}, models.RoundFinalQuiz))
	assert.Error(t, RequireQuizUnlocked(models.EnrollmentProgress{}, models.RoundProject))
}

func TestFailedRetakeKeepsEarnedFlag(t *testing.T) {
	e := models.SkillEnrollment{}
	e, passed := ApplyQuizResult(e, models.RoundQuiz, 80, 60)
	require.True(t, passed)

	e, passed = ApplyQuizResult(e, models.RoundQuiz, 20, 60)
	assert.False(t, passed)
	assert.True(t, e.Round2Completed)
	assert.Equal(t, 20, *e.Round2Score)
}

func TestFinalQuizCompletesCourse(t *testing.T) {
	e, passed := ApplyQuizResult(models.SkillEnrollment{}, models.RoundFinalQuiz, 60, 60)
	assert.True(t, passed)
	assert.True(t, e.Round4Completed)
	assert.True(t, e.Completed)
}

func TestProjectGatingAndReview(t *testing.T) {
	err := RequireProjectUnlocked(models.EnrollmentProgress{Round1Completed: true})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	p := models.EnrollmentProgress{Round1Completed: true, Round2Completed: true}
	require.NoError(t, RequireProjectUnlocked(p))

	reworked, err := ApplyProjectReview(models.ProjectPending, p, models.ProjectRework)
	require.NoError(t, err)
	assert.False(t, reworked.Round3Approved)

	approved, err := ApplyProjectReview(models.ProjectPending, p, models.ProjectApproved)
	require.NoError(t, err)
	assert.True(t, approved.Round3Approved)

	_, err = ApplyProjectReview(models.ProjectApproved, p, models.ProjectRejected)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition))

	_, err = ApplyProjectReview(models.ProjectPending, p, models.ProjectPending)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestLeaveTransition(t *testing.T) {
	assert.NoError(t, LeaveTransition(models.LeavePending, models.RoleFaculty, models.LeaveApproved))
	assert.True(t, appErrors.Is(LeaveTransition(models.LeavePending, models.RoleAdmin, models.LeaveApproved), appErrors.ErrForbiddenTransition))
	assert.True(t, appErrors.Is(LeaveTransition(models.LeaveRejected, models.RoleFaculty, models.LeaveApproved), appErrors.ErrInvalidTransition))
	assert.True(t, appErrors.Is(LeaveTransition(models.LeavePending, models.RoleFaculty, models.LeavePending), appErrors.ErrValidation))
}
