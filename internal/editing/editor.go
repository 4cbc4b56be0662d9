package editing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/kingrea/course-creator/internal/course"
	"github.com/kingrea/course-creator/internal/gateway"
)

// Remote is the part of the gateway the editor needs.
type Remote interface {
	ModifyContent(ctx context.Context, req gateway.ModifyRequest) (json.RawMessage, error)
	DeleteContent(ctx context.Context, req gateway.DeleteRequest) error
}

type Logger interface {
	Printf(format string, args ...any)
}

// Editor issues edits and guarantees at most one in-flight request per key.
// Requests with different keys run concurrently.
type Editor struct {
	remote Remote
	logger Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

type Option func(*Editor)

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

func NewEditor(remote Remote, opts ...Option) *Editor {
	e := &Editor{
		remote:   remote,
		logger:   nopLogger{},
		inflight: map[string]struct{}{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// InFlight reports whether a request with this key is loading.
func (e *Editor) InFlight(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.inflight[key]
	return ok
}

// Delete asks the server to delete the target and returns the local removal to apply.
func (e *Editor) Delete(ctx context.Context, data course.CourseData, target Target) (Patch, error) {
	loc, err := target.resolve("delete "+string(target.Type), data)
	if err != nil {
		return Patch{}, err
	}
	key := Key(ActionDelete, target, data)
	if !e.acquire(key) {
		return Patch{}, fmt.Errorf("editing: %s: %w", key, ErrInFlight)
	}
	defer e.release(key)

	e.logger.Printf("editing: %s requested", key)
	err = e.remote.DeleteContent(ctx, gateway.DeleteRequest{
		ContentType: string(target.Type),
		ContentID:   loc.wireID,
	})
	if err != nil {
		e.logger.Printf("editing: %s failed: %v", key, err)
		return Patch{}, fmt.Errorf("editing: %w: %w", ErrDeleteFailed, err)
	}
	e.logger.Printf("editing: %s confirmed", key)
	return Patch{Action: ActionDelete, Target: target}, nil
}

// Modify asks the server to rewrite the target following prompt and returns the
// replacement to apply.
func (e *Editor) Modify(ctx context.Context, data course.CourseData, target Target, prompt string) (Patch, error) {
	prompt = strings.TrimSpace(prompt)
	loc, err := target.resolve("modify "+string(target.Type), data)
	if err != nil {
		return Patch{}, err
	}
	if prompt == "" {
		return Patch{}, &course.ValidationError{Field: "modification_prompt", Reason: "is required"}
	}
	key := Key(ActionModify, target, data)
	if !e.acquire(key) {
		return Patch{}, fmt.Errorf("editing: %s: %w", key, ErrInFlight)
	}
	defer e.release(key)

	e.logger.Printf("editing: %s requested", key)
	raw, err := e.remote.ModifyContent(ctx, gateway.ModifyRequest{
		ContentType:        string(target.Type),
		ContentID:          loc.wireID,
		ModificationPrompt: prompt,
		OriginalContent:    loc.original,
	})
	if err != nil {
		e.logger.Printf("editing: %s failed: %v", key, err)
		return Patch{}, fmt.Errorf("editing: %w: %w", ErrModifyFailed, err)
	}
	patch, err := decodeModified(target, raw)
	if err != nil {
		e.logger.Printf("editing: %s returned unusable content: %v", key, err)
		return Patch{}, fmt.Errorf("editing: %w: %w", ErrModifyFailed, err)
	}
	e.logger.Printf("editing: %s confirmed", key)
	return patch, nil
}

func decodeModified(target Target, raw json.RawMessage) (Patch, error) {
	patch := Patch{Action: ActionModify, Target: target}
	switch target.Type {
	case ContentCourse:
		var generated course.GeneratedCourse
		if err := json.Unmarshal(raw, &generated); err != nil {
			return Patch{}, fmt.Errorf("decode course: %w", err)
		}
		if strings.TrimSpace(generated.Course) == "" && len(generated.Modules) == 0 {
			return Patch{}, fmt.Errorf("decode course: empty course")
		}
		patch.course = &generated
	case ContentModule:
		var module course.Module
		if err := json.Unmarshal(raw, &module); err != nil {
			return Patch{}, fmt.Errorf("decode module: %w", err)
		}
		if strings.TrimSpace(module.Title) == "" {
			return Patch{}, fmt.Errorf("decode module: missing title")
		}
		patch.module = &module
	default:
		var lesson course.Lesson
		if err := json.Unmarshal(raw, &lesson); err != nil {
			return Patch{}, fmt.Errorf("decode lesson: %w", err)
		}
		if strings.TrimSpace(lesson.Title) == "" {
			return Patch{}, fmt.Errorf("decode lesson: missing title")
		}
		patch.lesson = &lesson
	}
	return patch, nil
}

func (e *Editor) acquire(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inflight[key]; busy {
		return false
	}
	e.inflight[key] = struct{}{}
	return true
}

func (e *Editor) release(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, key)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}
