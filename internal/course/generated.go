package course

import (
	"github.com/google/uuid"
)

// Lesson is a single unit inside a module.
type Lesson struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Detail  string `json:"detail"`
}

// Module groups lessons. ID is assigned locally and is the addressing key for edits;
// Title is what the remote API knows the module by.
type Module struct {
	ID      string   `json:"id,omitempty"`
	Title   string   `json:"title"`
	Lessons []Lesson `json:"lessons"`
}

// Clone returns a deep copy of the module.
func (m Module) Clone() Module {
	m.Lessons = append([]Lesson(nil), m.Lessons...)
	if m.Lessons == nil {
		m.Lessons = []Lesson{}
	}
	return m
}

// LessonIndex returns the position of the lesson with the given id, or -1.
func (m Module) LessonIndex(lessonID string) int {
	for i, lesson := range m.Lessons {
		if lesson.ID == lessonID {
			return i
		}
	}
	return -1
}

// GeneratedCourse is the outline produced by the generation service.
type GeneratedCourse struct {
	Course  string   `json:"course"`
	Modules []Module `json:"modules"`
}

// AssignIDs gives every module and lesson without an id a fresh one.
// Existing ids are kept so edits can preserve identity.
func (g *GeneratedCourse) AssignIDs() {
	if g == nil {
		return
	}
	for mi := range g.Modules {
		if g.Modules[mi].ID == "" {
			g.Modules[mi].ID = uuid.NewString()
		}
		for li := range g.Modules[mi].Lessons {
			if g.Modules[mi].Lessons[li].ID == "" {
				g.Modules[mi].Lessons[li].ID = uuid.NewString()
			}
		}
	}
}

// ModuleIndex returns the position of the module with the given id, or -1.
func (g *GeneratedCourse) ModuleIndex(moduleID string) int {
	if g == nil {
		return -1
	}
	for i, module := range g.Modules {
		if module.ID == moduleID {
			return i
		}
	}
	return -1
}

// Module looks up a module by id.
func (g *GeneratedCourse) Module(moduleID string) (Module, bool) {
	idx := g.ModuleIndex(moduleID)
	if idx < 0 {
		return Module{}, false
	}
	return g.Modules[idx], true
}

// Lesson looks up a lesson by its (moduleID, lessonID) address.
func (g *GeneratedCourse) Lesson(moduleID, lessonID string) (Lesson, bool) {
	module, ok := g.Module(moduleID)
	if !ok {
		return Lesson{}, false
	}
	idx := module.LessonIndex(lessonID)
	if idx < 0 {
		return Lesson{}, false
	}
	return module.Lessons[idx], true
}

// LessonCount totals lessons across modules.
func (g *GeneratedCourse) LessonCount() int {
	if g == nil {
		return 0
	}
	total := 0
	for _, module := range g.Modules {
		total += len(module.Lessons)
	}
	return total
}

// Clone returns a deep copy. A nil course clones to nil.
func (g *GeneratedCourse) Clone() *GeneratedCourse {
	if g == nil {
		return nil
	}
	out := &GeneratedCourse{Course: g.Course, Modules: make([]Module, len(g.Modules))}
	for i, module := range g.Modules {
		out.Modules[i] = module.Clone()
	}
	return out
}
