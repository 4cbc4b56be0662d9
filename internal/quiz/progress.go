package quiz

import (
	"sync"

	"github.com/kingrea/course-creator/internal/course"
)

// ModuleStatus is the unlock state of a module on the learning path.
type ModuleStatus string

const (
	StatusLocked   ModuleStatus = "locked"
	StatusUnlocked ModuleStatus = "unlocked"
	StatusActive   ModuleStatus = "active"
)

// Progress is the set of modules whose quiz has been finished.
type Progress struct {
	mu        sync.RWMutex
	completed map[string]bool
}

func NewProgress() *Progress {
	return &Progress{completed: map[string]bool{}}
}

// MarkCompleted records a finished module quiz.
func (p *Progress) MarkCompleted(moduleID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed[moduleID] = true
}

func (p *Progress) Completed(moduleID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.completed[moduleID]
}

// CompletedCount reports how many modules are completed.
func (p *Progress) CompletedCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.completed)
}

// Reset forgets every completion.
func (p *Progress) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed = map[string]bool{}
}

// Status returns the unlock state of modules[index]. The first module is active,
// the second is always unlocked, and each later one unlocks once its predecessor is completed.
func (p *Progress) Status(modules []course.Module, index int) ModuleStatus {
	switch {
	case index < 0 || index >= len(modules):
		return StatusLocked
	case index == 0:
		return StatusActive
	case index == 1:
		return StatusUnlocked
	case p.Completed(modules[index-1].ID):
		return StatusUnlocked
	default:
		return StatusLocked
	}
}

// Accessible reports whether modules[index] can be opened.
func (p *Progress) Accessible(modules []course.Module, index int) bool {
	return p.Status(modules, index) != StatusLocked
}

// Statuses returns the status of every module in order.
func (p *Progress) Statuses(modules []course.Module) []ModuleStatus {
	out := make([]ModuleStatus, len(modules))
	for i := range modules {
		out[i] = p.Status(modules, i)
	}
	return out
}
