package training

import "math"

// QuizResponse is one question's outcome
type QuizResponse struct {
	Correct  bool  `json:"correct"`
	Attempts int   `json:"attempts"`
	TimeMs   int64 `json:"timeMs"`
}

// QuizSummary aggregates a quiz completion
type QuizSummary struct {
	TotalQuestions  int   `json:"totalQuestions"`
	CorrectFirstTry int   `json:"correctFirstTry"`
	TotalAttempts   int   `json:"totalAttempts"`
	AverageTimeMs   int64 `json:"averageTimeMs"`
	TotalScore      int   `json:"totalScore"`
}

// questionScore awards 100 minus 10 per extra attempt, floored at 50, for
// any eventually correct answer; incorrect answers score zero. The floor is
// deliberate lenience and is not configurable per question.
func questionScore(r QuizResponse) int {
	if !r.Correct {
		return 0
	}
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	score := 100 - (attempts-1)*10
	if score < 50 {
		score = 50
	}
	return score
}

// ScoreQuiz computes the summary for a quiz response map. totalQuestions
// overrides the response-map size when positive (some questions may be
// unanswered).
func ScoreQuiz(responses map[string]QuizResponse, totalQuestions int) QuizSummary {
	summary := QuizSummary{TotalQuestions: totalQuestions}
	if summary.TotalQuestions <= 0 {
		summary.TotalQuestions = len(responses)
	}

	var timeSum int64
	for _, r := range responses {
		attempts := r.Attempts
		if attempts < 1 {
			attempts = 1
		}
		summary.TotalAttempts += attempts
		if r.Correct && attempts == 1 {
			summary.CorrectFirstTry++
		}
		summary.TotalScore += questionScore(r)
		timeSum += r.TimeMs
	}

	if len(responses) > 0 {
		summary.AverageTimeMs = timeSum / int64(len(responses))
	}

	return summary
}

// LetterGrade derives the final grade from the accumulated score and the
// number of completed phases (each phase is worth 100). Zero phases yields
// the "N/A" sentinel instead of dividing by zero.
func LetterGrade(totalScore, phasesCompleted int) (percentage int, grade string) {
	if phasesCompleted == 0 {
		return 0, "N/A"
	}

	percentage = int(math.Round(float64(totalScore) / float64(phasesCompleted*100) * 100))

	switch {
	case percentage >= 90:
		grade = "A"
	case percentage >= 80:
		grade = "B"
	case percentage >= 70:
		grade = "C"
	case percentage >= 60:
		grade = "D"
	default:
		grade = "F"
	}

	return percentage, grade
}
