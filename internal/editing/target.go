// Package editing implements modify and delete requests against generated course content.
package editing

import (
	"errors"
	"fmt"

	"github.com/kingrea/course-creator/internal/course"
)

var (
	ErrDeleteFailed = errors.New("delete failed")
	ErrModifyFailed = errors.New("modify failed")
	// ErrInFlight rejects a second request for a key that is still loading.
	ErrInFlight = errors.New("operation already in flight")
)

// Action is the kind of edit.
type Action string

const (
	ActionModify Action = "modify"
	ActionDelete Action = "delete"
)

// ContentType is the granularity of an edit.
type ContentType string

const (
	ContentCourse ContentType = "course"
	ContentModule ContentType = "module"
	ContentLesson ContentType = "lesson"
)

func (c ContentType) Valid() bool {
	switch c {
	case ContentCourse, ContentModule, ContentLesson:
		return true
	}
	return false
}

// Target addresses content by stable id. ModuleID is set for modules and lessons,
// LessonID only for lessons.
type Target struct {
	Type     ContentType
	ModuleID string
	LessonID string
}

func CourseTarget() Target { return Target{Type: ContentCourse} }

func ModuleTarget(moduleID string) Target {
	return Target{Type: ContentModule, ModuleID: moduleID}
}

func LessonTarget(moduleID, lessonID string) Target {
	return Target{Type: ContentLesson, ModuleID: moduleID, LessonID: lessonID}
}

// Key is the loading key for an edit: "{action}_{contentType}_{id}", where id is the
// course title for the course, the module id for a module and "moduleID/lessonID" for a lesson.
func Key(action Action, target Target, data course.CourseData) string {
	return fmt.Sprintf("%s_%s_%s", action, target.Type, target.keyID(data))
}

func (t Target) keyID(data course.CourseData) string {
	switch t.Type {
	case ContentCourse:
		if data.GeneratedCourse != nil {
			return data.GeneratedCourse.Course
		}
		return ""
	case ContentModule:
		return t.ModuleID
	case ContentLesson:
		return t.ModuleID + "/" + t.LessonID
	}
	return ""
}

// resolved is a target located in a concrete state.
type resolved struct {
	wireID      string
	original    any
	moduleIndex int
	lessonIndex int
}

// resolve locates the target, returning a ContentStateError when it is absent.
func (t Target) resolve(op string, data course.CourseData) (resolved, error) {
	if !t.Type.Valid() {
		return resolved{}, &course.ValidationError{Field: "content_type", Reason: fmt.Sprintf("unknown content type %q", t.Type)}
	}
	generated := data.GeneratedCourse
	if generated == nil {
		return resolved{}, course.MissingCourse(op)
	}
	switch t.Type {
	case ContentCourse:
		return resolved{wireID: generated.Course, original: generated, moduleIndex: -1, lessonIndex: -1}, nil
	case ContentModule:
		mi := generated.ModuleIndex(t.ModuleID)
		if mi < 0 {
			return resolved{}, &course.ContentStateError{Op: op, Reason: fmt.Sprintf("module %s not found", t.ModuleID)}
		}
		module := generated.Modules[mi]
		return resolved{wireID: module.Title, original: module, moduleIndex: mi, lessonIndex: -1}, nil
	default:
		mi := generated.ModuleIndex(t.ModuleID)
		if mi < 0 {
			return resolved{}, &course.ContentStateError{Op: op, Reason: fmt.Sprintf("module %s not found", t.ModuleID)}
		}
		li := generated.Modules[mi].LessonIndex(t.LessonID)
		if li < 0 {
			return resolved{}, &course.ContentStateError{Op: op, Reason: fmt.Sprintf("lesson %s not found in module %s", t.LessonID, t.ModuleID)}
		}
		lesson := generated.Modules[mi].Lessons[li]
		return resolved{wireID: lesson.Title, original: lesson, moduleIndex: mi, lessonIndex: li}, nil
	}
}
