package editing

import (
	"github.com/kingrea/course-creator/internal/course"
)

// Patch is a server-confirmed edit waiting to be applied to the authoring state.
type Patch struct {
	Action Action
	Target Target

	course *course.GeneratedCourse
	module *course.Module
	lesson *course.Lesson
}

// Apply performs the edit on a copy of data. The target is located again in data,
// so a patch applies cleanly on top of edits that completed in the meantime.
// On error data is returned unchanged.
func (p Patch) Apply(data course.CourseData) (course.CourseData, error) {
	op := string(p.Action) + " " + string(p.Target.Type)
	loc, err := p.Target.resolve(op, data)
	if err != nil {
		return data, err
	}
	generated := data.GeneratedCourse.Clone()

	switch {
	case p.Target.Type == ContentCourse && p.Action == ActionDelete:
		return data.WithGeneratedCourse(nil), nil

	case p.Target.Type == ContentCourse:
		return data.WithGeneratedCourse(p.course), nil

	case p.Target.Type == ContentModule && p.Action == ActionDelete:
		modules := make([]course.Module, 0, len(generated.Modules)-1)
		modules = append(modules, generated.Modules[:loc.moduleIndex]...)
		modules = append(modules, generated.Modules[loc.moduleIndex+1:]...)
		generated.Modules = modules

	case p.Target.Type == ContentModule:
		replacement := p.module.Clone()
		replacement.ID = generated.Modules[loc.moduleIndex].ID
		generated.Modules[loc.moduleIndex] = replacement

	case p.Action == ActionDelete:
		module := &generated.Modules[loc.moduleIndex]
		lessons := make([]course.Lesson, 0, len(module.Lessons)-1)
		lessons = append(lessons, module.Lessons[:loc.lessonIndex]...)
		lessons = append(lessons, module.Lessons[loc.lessonIndex+1:]...)
		module.Lessons = lessons

	default:
		replacement := *p.lesson
		replacement.ID = generated.Modules[loc.moduleIndex].Lessons[loc.lessonIndex].ID
		generated.Modules[loc.moduleIndex].Lessons[loc.lessonIndex] = replacement
	}
	return data.WithGeneratedCourse(generated), nil
}
