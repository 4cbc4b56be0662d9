// Package wizard holds the course creator's step state machine and the session
// that owns the authoring state while an author walks through it.
package wizard

import (
	"fmt"
	"sort"

	"github.com/kingrea/course-creator/internal/course"
)

// StepKind identifies one screen of the wizard.
type StepKind int

const (
	StepDescription StepKind = iota
	StepUpload
	StepDetails
	StepLearningPath
	StepExamine
	StepOutcome
)

func (k StepKind) String() string {
	switch k {
	case StepDescription:
		return "description"
	case StepUpload:
		return "upload"
	case StepDetails:
		return "details"
	case StepLearningPath:
		return "learning_path"
	case StepExamine:
		return "examine"
	case StepOutcome:
		return "outcome"
	default:
		return fmt.Sprintf("step(%d)", int(k))
	}
}

// Label is the stepper text for a step within a given export flow.
func (k StepKind) Label(export course.ExportType) string {
	switch k {
	case StepDescription:
		return "Course"
	case StepUpload:
		return "Upload"
	case StepDetails:
		return "Learner"
	case StepLearningPath:
		return "Learning Path"
	case StepExamine:
		return "Examine"
	case StepOutcome:
		switch export {
		case course.ExportPowerPoint:
			return "PowerPoint"
		case course.ExportPDF:
			return "PDF"
		default:
			return "Course Outline"
		}
	default:
		return k.String()
	}
}

// Direction is the way a transition moves through the flow.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "back"
	}
	return "forward"
}

// FlowOptions shapes the long (Course) flow.
type FlowOptions struct {
	IncludeExamine bool
}

// Transition is one row of the compiled table.
type Transition struct {
	Export    course.ExportType
	From      int
	Direction Direction
	To        int
	// Skip marks rows that jump over steps only the Course flow has.
	Skip bool
}

type transitionKey struct {
	export    course.ExportType
	from      int
	direction Direction
}

// Navigator maps (export type, step index, direction) to the next step index.
// Every move is a table lookup; there is no branching outside compile.
type Navigator struct {
	flows map[course.ExportType][]StepKind
	table map[transitionKey]Transition
}

// NewNavigator assembles the step list for every export type and compiles the
// transition table.
func NewNavigator(opts FlowOptions) *Navigator {
	long := []StepKind{StepDescription, StepUpload, StepDetails, StepLearningPath}
	if opts.IncludeExamine {
		long = append(long, StepExamine)
	}
	long = append(long, StepOutcome)
	short := []StepKind{StepDescription, StepUpload, StepDetails, StepOutcome}

	n := &Navigator{
		flows: map[course.ExportType][]StepKind{},
		table: map[transitionKey]Transition{},
	}
	for _, export := range course.AllExportTypes() {
		steps := long
		if export.Document() {
			steps = short
		}
		n.flows[export] = append([]StepKind(nil), steps...)
		n.compile(export, steps)
	}
	return n
}

func (n *Navigator) compile(export course.ExportType, steps []StepKind) {
	last := len(steps) - 1
	details := indexOf(steps, StepDetails)
	outcome := indexOf(steps, StepOutcome)
	for i := range steps {
		forward := Transition{Export: export, From: i, Direction: Forward, To: min(i+1, last)}
		backward := Transition{Export: export, From: i, Direction: Backward, To: max(i-1, 0)}
		if export.Document() {
			if i == details {
				forward.To, forward.Skip = outcome, true
			}
			if i == outcome {
				backward.To, backward.Skip = details, true
			}
		}
		n.table[transitionKey{export, i, Forward}] = forward
		n.table[transitionKey{export, i, Backward}] = backward
	}
}

// Table returns every compiled row ordered by export type, index and direction.
func (n *Navigator) Table() []Transition {
	rows := make([]Transition, 0, len(n.table))
	for _, row := range n.table {
		rows = append(rows, row)
	}
	order := map[course.ExportType]int{}
	for i, export := range course.AllExportTypes() {
		order[export] = i
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Export != b.Export {
			return order[a.Export] < order[b.Export]
		}
		if a.From != b.From {
			return a.From < b.From
		}
		return a.Direction < b.Direction
	})
	return rows
}

// Steps returns the ordered step list for an export type.
func (n *Navigator) Steps(export course.ExportType) []StepKind {
	return append([]StepKind(nil), n.flows[export]...)
}

// Labels returns the stepper labels for an export type.
func (n *Navigator) Labels(export course.ExportType) []string {
	steps := n.flows[export]
	labels := make([]string, len(steps))
	for i, step := range steps {
		labels[i] = step.Label(export)
	}
	return labels
}

// Step returns the step at index within the export flow.
func (n *Navigator) Step(export course.ExportType, index int) (StepKind, error) {
	steps, ok := n.flows[export]
	if !ok {
		return 0, fmt.Errorf("wizard: unknown export type %q", export)
	}
	if index < 0 || index >= len(steps) {
		return 0, fmt.Errorf("wizard: step index %d out of range for %s flow", index, export)
	}
	return steps[index], nil
}

// Advance returns the index after index. The last step maps to itself.
func (n *Navigator) Advance(export course.ExportType, index int) int {
	return n.move(export, index, Forward)
}

// Retreat returns the index before index. Step 0 maps to itself.
func (n *Navigator) Retreat(export course.ExportType, index int) int {
	return n.move(export, index, Backward)
}

func (n *Navigator) move(export course.ExportType, index int, direction Direction) int {
	row, ok := n.table[transitionKey{export, index, direction}]
	if !ok {
		return index
	}
	return row.To
}

// IndexOf returns the position of kind in the export flow, or -1.
func (n *Navigator) IndexOf(export course.ExportType, kind StepKind) int {
	return indexOf(n.flows[export], kind)
}

func indexOf(steps []StepKind, kind StepKind) int {
	for i, step := range steps {
		if step == kind {
			return i
		}
	}
	return -1
}
