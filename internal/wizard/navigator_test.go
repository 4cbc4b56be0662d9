package wizard

import (
	"reflect"
	"testing"

	"github.com/kingrea/course-creator/internal/course"
)

func TestDocumentFlowsSkipCourseOnlySteps(t *testing.T) {
	nav := NewNavigator(FlowOptions{IncludeExamine: true})
	for _, export := range []course.ExportType{course.ExportPowerPoint, course.ExportPDF} {
		steps := nav.Steps(export)
		want := []StepKind{StepDescription, StepUpload, StepDetails, StepOutcome}
		if !reflect.DeepEqual(steps, want) {
			t.Fatalf("%s steps = %v", export, steps)
		}
		details := nav.IndexOf(export, StepDetails)
		outcome := nav.Advance(export, details)
		if step, _ := nav.Step(export, outcome); step != StepOutcome {
			t.Fatalf("%s: advance from details landed on %s", export, step)
		}
		if back := nav.Retreat(export, outcome); back != details {
			t.Fatalf("%s: retreat from outcome = %d, want %d", export, back, details)
		}
	}
	if got := nav.Labels(course.ExportPDF)[3]; got != "PDF" {
		t.Fatalf("outcome label = %q", got)
	}
}

func TestCourseFlowMovesOneStepAtATime(t *testing.T) {
	cases := []struct {
		opts FlowOptions
		want []string
	}{
		{FlowOptions{}, []string{"Course", "Upload", "Learner", "Learning Path", "Course Outline"}},
		{FlowOptions{IncludeExamine: true}, []string{"Course", "Upload", "Learner", "Learning Path", "Examine", "Course Outline"}},
	}
	for _, tc := range cases {
		nav := NewNavigator(tc.opts)
		labels := nav.Labels(course.ExportCourse)
		if !reflect.DeepEqual(labels, tc.want) {
			t.Fatalf("labels = %v, want %v", labels, tc.want)
		}
		last := len(labels) - 1
		for i := 0; i < last; i++ {
			if got := nav.Advance(course.ExportCourse, i); got != i+1 {
				t.Fatalf("advance(%d) = %d", i, got)
			}
			if got := nav.Retreat(course.ExportCourse, i+1); got != i {
				t.Fatalf("retreat(%d) = %d", i+1, got)
			}
		}
	}
}

func TestBoundariesAreNoOps(t *testing.T) {
	nav := NewNavigator(FlowOptions{IncludeExamine: true})
	for _, export := range course.AllExportTypes() {
		last := len(nav.Steps(export)) - 1
		if got := nav.Advance(export, last); got != last {
			t.Fatalf("%s: advance at last = %d", export, got)
		}
		if got := nav.Retreat(export, 0); got != 0 {
			t.Fatalf("%s: retreat at first = %d", export, got)
		}
	}
	if got := nav.Advance(course.ExportCourse, 42); got != 42 {
		t.Fatalf("unknown index should be left alone, got %d", got)
	}
	if _, err := nav.Step(course.ExportPDF, 4); err == nil {
		t.Fatalf("expected out-of-range step to fail")
	}
	if _, err := nav.Step("Video", 0); err == nil {
		t.Fatalf("expected unknown export type to fail")
	}
}

func TestStepsBeforeDetailsAreExportAgnostic(t *testing.T) {
	nav := NewNavigator(FlowOptions{IncludeExamine: true})
	for _, kind := range []StepKind{StepDescription, StepUpload, StepDetails} {
		want := nav.IndexOf(course.ExportCourse, kind)
		for _, export := range course.AllExportTypes() {
			if got := nav.IndexOf(export, kind); got != want {
				t.Fatalf("%s index in %s flow = %d, want %d", kind, export, got, want)
			}
		}
	}
}

func TestTableListsEveryRow(t *testing.T) {
	nav := NewNavigator(FlowOptions{IncludeExamine: true})
	rows := nav.Table()
	// 6 long steps + 4 + 4 short steps, two directions each.
	if len(rows) != 28 {
		t.Fatalf("rows = %d", len(rows))
	}
	var skips []Transition
	for _, row := range rows {
		if row.Skip {
			skips = append(skips, row)
		}
	}
	want := []Transition{
		{Export: course.ExportPowerPoint, From: 2, Direction: Forward, To: 3, Skip: true},
		{Export: course.ExportPowerPoint, From: 3, Direction: Backward, To: 2, Skip: true},
		{Export: course.ExportPDF, From: 2, Direction: Forward, To: 3, Skip: true},
		{Export: course.ExportPDF, From: 3, Direction: Backward, To: 2, Skip: true},
	}
	if !reflect.DeepEqual(skips, want) {
		t.Fatalf("skip rows = %+v", skips)
	}
	if rows[0].Export != course.ExportCourse || rows[0].From != 0 || rows[0].Direction != Forward {
		t.Fatalf("table not ordered: %+v", rows[0])
	}
}
