package wizard

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kingrea/course-creator/internal/course"
	"github.com/kingrea/course-creator/internal/editing"
	"github.com/kingrea/course-creator/internal/gateway"
	"github.com/kingrea/course-creator/internal/quiz"
)

// Describe turns an error into the message shown to the author.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, editing.ErrInFlight):
		return "That change is already in progress."
	case errors.Is(err, editing.ErrDeleteFailed):
		return "Could not delete: " + describeCause(err)
	case errors.Is(err, editing.ErrModifyFailed):
		return "Could not apply the change: " + describeCause(err)
	}
	return describeCause(err)
}

func describeCause(err error) string {
	var (
		transport  *gateway.TransportError
		rejected   *gateway.RejectedError
		fields     course.ValidationErrors
		validation *course.ValidationError
		state      *course.ContentStateError
	)
	switch {
	case errors.As(err, &transport) && transport.Timeout():
		return "The course server took too long to respond. Try again."
	case errors.As(err, &transport):
		return "Could not reach the course server. Check the connection and try again."
	case errors.As(err, &rejected):
		msg := strings.TrimSpace(rejected.Message)
		if msg == "" {
			msg = http.StatusText(rejected.Status)
		}
		return fmt.Sprintf("The course server refused the request: %s", msg)
	case errors.As(err, &fields):
		return "Please fill in: " + strings.Join(fields.Fields(), ", ")
	case errors.As(err, &validation):
		return validation.Error()
	case errors.Is(err, course.ErrNoGeneratedCourse):
		return "No course has been generated yet. Go back to the Upload step."
	case errors.As(err, &state):
		return fmt.Sprintf("Cannot %s: %s. Go back and try again.", state.Op, state.Reason)
	case errors.Is(err, ErrExportTypeLocked):
		return "The output type can only be changed on the Learner step."
	case errors.Is(err, ErrModuleLocked):
		return "Finish the previous module's quiz to unlock this module."
	case errors.Is(err, ErrLastStep):
		return "This is the last step."
	case errors.Is(err, quiz.ErrNoQuestions):
		return "The quiz came back without questions. Try again."
	}
	return err.Error()
}

// Operations whose repetition cannot change server-side content.
const (
	OpLessonContent = "lesson content"
	OpQuiz          = "quiz"
	OpTranslate     = "translate"
	OpSpeech        = "speech"
)

var idempotentOps = map[string]bool{
	OpLessonContent: true,
	OpQuiz:          true,
	OpTranslate:     true,
	OpSpeech:        true,
}

// Retryable reports whether the author may be offered to repeat op after err.
// Only the read-only operations above qualify. Nothing retries automatically.
func Retryable(op string, err error) bool {
	if err == nil || !idempotentOps[op] {
		return false
	}
	if errors.Is(err, editing.ErrInFlight) || errors.Is(err, editing.ErrModifyFailed) || errors.Is(err, editing.ErrDeleteFailed) {
		return false
	}
	var transport *gateway.TransportError
	if errors.As(err, &transport) {
		return true
	}
	var rejected *gateway.RejectedError
	if errors.As(err, &rejected) {
		switch {
		case rejected.Status >= http.StatusInternalServerError,
			rejected.Status == http.StatusRequestTimeout,
			rejected.Status == http.StatusTooManyRequests,
			rejected.Status == http.StatusOK:
			return true
		}
		return false
	}
	return errors.Is(err, quiz.ErrNoQuestions)
}
