package workflow

import (
	"fmt"
	"math"

	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

// QuizScore is the graded result of a quiz attempt.
type QuizScore struct {
	Correct int
	Total   int
	Score   int
}

// ScoreQuiz grades answers against questions. Score is round(100*correct/total).
// Unanswered questions count as wrong; answers past the last question are ignored.
func ScoreQuiz(questions models.QuizQuestions, answers []int) (QuizScore, error) {
	if len(questions) == 0 {
		return QuizScore{}, appErrors.Clone(appErrors.ErrValidation, "quiz has no questions")
	}

	correct := 0
	for i, q := range questions {
		if i < len(answers) && answers[i] == q.CorrectIndex {
			correct++
		}
	}
	total := len(questions)
	score := int(math.Round(float64(100*correct) / float64(total)))
	return QuizScore{Correct: correct, Total: total, Score: score}, nil
}

// CompleteContentRound marks round 1 as done.
func CompleteContentRound(p models.EnrollmentProgress) models.EnrollmentProgress {
	p.Round1Completed = true
	return p
}

// RequireQuizUnlocked checks the gating of quiz rounds 2 and 4.
func RequireQuizUnlocked(p models.EnrollmentProgress, round int) error {
	switch round {
	case models.RoundQuiz:
		if !p.Round1Completed {
			return completeFirst(models.RoundContent)
		}
	case models.RoundFinalQuiz:
		if !p.Round3Approved {
			return completeFirst(models.RoundProject)
		}
	default:
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("round %d is not a quiz", round))
	}
	return nil
}

// ApplyQuizResult records score for round and returns whether the attempt passed. A failed
// retake keeps flags that were already earned.
func ApplyQuizResult(e models.SkillEnrollment, round, score, threshold int) (models.SkillEnrollment, bool) {
	passed := score >= threshold
	s := score
	switch round {
	case models.RoundQuiz:
		e.Round2Score = &s
		if passed {
			e.Round2Completed = true
		}
	case models.RoundFinalQuiz:
		e.Round4Score = &s
		if passed {
			e.Round4Completed = true
			e.Completed = true
		}
	}
	return e, passed
}

// RequireProjectUnlocked checks that round 2 is done before a project submission.
func RequireProjectUnlocked(p models.EnrollmentProgress) error {
	if !p.Round2Completed {
		return completeFirst(models.RoundQuiz)
	}
	return nil
}

// ParseProjectReview validates a review decision.
func ParseProjectReview(raw string) (models.ProjectStatus, error) {
	switch status := models.ProjectStatus(raw); status {
	case models.ProjectApproved, models.ProjectRejected, models.ProjectRework:
		return status, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "status must be Approved, Rejected or Rework")
	}
}

// ApplyProjectReview moves a pending submission to decision. Only approval unlocks round 4.
func ApplyProjectReview(current models.ProjectStatus, p models.EnrollmentProgress, decision models.ProjectStatus) (models.EnrollmentProgress, error) {
	if current != models.ProjectPending {
		return p, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("submission has already been reviewed (%s)", current))
	}
	if _, err := ParseProjectReview(string(decision)); err != nil {
		return p, err
	}
	if decision == models.ProjectApproved {
		p.Round3Approved = true
	}
	return p, nil
}

func completeFirst(round int) error {
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("complete round %d first", round))
}
