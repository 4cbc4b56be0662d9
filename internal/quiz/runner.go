// Package quiz runs a fetched module quiz and tracks which modules are unlocked.
package quiz

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/kingrea/course-creator/internal/course"
)

// State is the runner lifecycle.
type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateFinished   State = "finished"
)

// ErrNoQuestions is returned when a quiz has nothing to answer.
var ErrNoQuestions = errors.New("quiz: no questions")

// Feedback is shown immediately after an answer is chosen.
type Feedback struct {
	QuestionID  int
	Selected    int
	Correct     bool
	Answer      int
	Explanation string
}

// Result summarizes a finished quiz.
type Result struct {
	Score          int           `json:"score"`
	TotalQuestions int           `json:"totalQuestions"`
	Answers        map[int]int   `json:"answers"`
	TimeSpent      time.Duration `json:"timeSpent"`
}

// Percentage returns the score as a whole percentage, rounded half up.
func (r Result) Percentage() int {
	if r.TotalQuestions == 0 {
		return 0
	}
	return int(math.Floor(float64(r.Score)*100/float64(r.TotalQuestions) + 0.5))
}

// Grade returns the display band for the result.
func (r Result) Grade() Grade {
	return GradeFor(r.Percentage())
}

// Runner is a single attempt at a quiz. It is safe for concurrent use.
type Runner struct {
	quiz     course.Quiz
	clock    func() time.Time
	onFinish func(Result)

	mu       sync.Mutex
	state    State
	index    int
	answers  map[int]int
	answered bool
	started  time.Time
	result   *Result
}

// Option customizes a Runner.
type Option func(*Runner)

// WithClock allows tests to control elapsed time.
func WithClock(clock func() time.Time) Option {
	return func(r *Runner) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithOnFinish registers a callback fired once when the quiz finishes.
func WithOnFinish(fn func(Result)) Option {
	return func(r *Runner) {
		r.onFinish = fn
	}
}

// New starts a runner at the first question with no answers.
func New(q course.Quiz, opts ...Option) (*Runner, error) {
	if len(q.Questions) == 0 {
		return nil, ErrNoQuestions
	}
	r := &Runner{
		quiz:    q,
		clock:   time.Now,
		state:   StateNotStarted,
		answers: map[int]int{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.state = StateInProgress
	r.started = r.clock()
	return r, nil
}

func (r *Runner) Quiz() course.Quiz { return r.quiz }

func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Current returns the question on screen and its index.
func (r *Runner) Current() (course.Question, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quiz.Questions[r.index], r.index
}

// Answered reports whether the current question already has an answer,
// and the feedback to show for it.
func (r *Runner) Answered() (Feedback, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.answered {
		return Feedback{}, false
	}
	q := r.quiz.Questions[r.index]
	return feedbackFor(q, r.answers[q.ID]), true
}

// Progress returns how many questions have answers and the total.
func (r *Runner) Progress() (answered, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.answers), len(r.quiz.Questions)
}

// SelectAnswer records the first answer to a question. Later selections,
// unknown questions and out-of-range options are ignored and report false.
func (r *Runner) SelectAnswer(questionID, option int) (Feedback, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateInProgress {
		return Feedback{}, false
	}
	q, ok := r.question(questionID)
	if !ok || option < 0 || option >= len(q.Options) {
		return Feedback{}, false
	}
	if _, done := r.answers[questionID]; done {
		return Feedback{}, false
	}
	r.answers[questionID] = option
	if r.quiz.Questions[r.index].ID == questionID {
		r.answered = true
	}
	return feedbackFor(q, option), true
}

// Next moves to the following question, or finishes on the last one. It does
// nothing until the current question has an answer; Finish ends early.
func (r *Runner) Next() (Result, bool) {
	r.mu.Lock()
	if r.state != StateInProgress || !r.answered {
		r.mu.Unlock()
		return Result{}, false
	}
	if r.index < len(r.quiz.Questions)-1 {
		r.index++
		r.answered = r.hasAnswer(r.index)
		r.mu.Unlock()
		return Result{}, false
	}
	result, callback := r.finishLocked()
	r.mu.Unlock()
	if callback != nil {
		callback(result)
	}
	return result, true
}

// Previous moves back one question when possible.
func (r *Runner) Previous() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateInProgress || r.index == 0 {
		return false
	}
	r.index--
	r.answered = r.hasAnswer(r.index)
	return true
}

// Finish ends the quiz now; unanswered questions score zero.
func (r *Runner) Finish() Result {
	r.mu.Lock()
	if r.state == StateFinished {
		result := *r.result
		r.mu.Unlock()
		return result
	}
	result, callback := r.finishLocked()
	r.mu.Unlock()
	if callback != nil {
		callback(result)
	}
	return result
}

// Result returns the final result once finished.
func (r *Runner) Result() (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.result == nil {
		return Result{}, false
	}
	return *r.result, true
}

func (r *Runner) finishLocked() (Result, func(Result)) {
	score := 0
	for _, q := range r.quiz.Questions {
		if answer, ok := r.answers[q.ID]; ok && answer == q.CorrectAnswer {
			score++
		}
	}
	answers := make(map[int]int, len(r.answers))
	for id, option := range r.answers {
		answers[id] = option
	}
	result := Result{
		Score:          score,
		TotalQuestions: len(r.quiz.Questions),
		Answers:        answers,
		TimeSpent:      r.clock().Sub(r.started),
	}
	r.result = &result
	r.state = StateFinished
	return result, r.onFinish
}

func (r *Runner) question(id int) (course.Question, bool) {
	for _, q := range r.quiz.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return course.Question{}, false
}

func (r *Runner) hasAnswer(index int) bool {
	_, ok := r.answers[r.quiz.Questions[index].ID]
	return ok
}

func feedbackFor(q course.Question, selected int) Feedback {
	return Feedback{
		QuestionID:  q.ID,
		Selected:    selected,
		Correct:     selected == q.CorrectAnswer,
		Answer:      q.CorrectAnswer,
		Explanation: q.Explanation,
	}
}
