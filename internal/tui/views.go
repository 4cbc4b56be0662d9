package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/course-creator/internal/course"
	"github.com/kingrea/course-creator/internal/editing"
	"github.com/kingrea/course-creator/internal/quiz"
	"github.com/kingrea/course-creator/internal/sources"
	"github.com/kingrea/course-creator/internal/wizard"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).MarginBottom(1)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
	activeStep  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	doneStep    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6BCB77"))
	futureStep  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).MarginTop(1)
	hintLine    = lipgloss.NewStyle().MarginTop(1)
	hintKey     = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	offKey      = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555")).Strikethrough(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6BCB77"))
	focusStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
)

// outlineItem is one row of the learning path list: a module or one of its lessons.
type outlineItem struct {
	moduleID string
	lessonID string
	title    string
	desc     string
}

func (i outlineItem) Title() string       { return i.title }
func (i outlineItem) Description() string { return i.desc }
func (i outlineItem) FilterValue() string { return i.title }

func (i outlineItem) target() editing.Target {
	if i.lessonID != "" {
		return editing.LessonTarget(i.moduleID, i.lessonID)
	}
	return editing.ModuleTarget(i.moduleID)
}

// refreshOutline rebuilds the list from the session, keeping the cursor in range.
func (a *App) refreshOutline() {
	state := a.session.State()
	if state.GeneratedCourse == nil {
		a.outline.SetItems(nil)
		return
	}
	statuses := a.session.ModuleStatuses()
	var items []list.Item
	for i, module := range state.GeneratedCourse.Modules {
		status := quiz.StatusLocked
		if i < len(statuses) {
			status = statuses[i]
		}
		items = append(items, outlineItem{
			moduleID: module.ID,
			title:    fmt.Sprintf("%d. %s", i+1, module.Title),
			desc:     fmt.Sprintf("%s · %d lesson(s)", status, len(module.Lessons)),
		})
		for _, lesson := range module.Lessons {
			items = append(items, outlineItem{
				moduleID: module.ID,
				lessonID: lesson.ID,
				title:    "   • " + lesson.Title,
				desc:     "     " + lesson.Summary,
			})
		}
	}
	index := a.outline.Index()
	a.outline.Title = state.GeneratedCourse.Course
	a.outline.SetItems(items)
	if index >= len(items) {
		index = len(items) - 1
	}
	if index >= 0 {
		a.outline.Select(index)
	}
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	content := a.renderStep()
	if a.overlay != overlayNone {
		content = a.renderOverlay()
	}
	if a.errMsg != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, content, errorStyle.Render("⚠ "+a.errMsg))
	}
	sections := []string{
		headerStyle.Render("⬡ COURSE CREATOR"),
		a.renderStepper(),
		boxStyle.Width(max(20, width-4)).Render(content),
	}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := a.statusMsg
	if a.Busy() {
		footer = strings.TrimSpace("Working… " + footer)
	}
	sections = append(sections, lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginTop(1).Render(footer))
	return strings.Join(sections, "\n")
}

func (a *App) renderStepper() string {
	current := a.session.Index()
	var parts []string
	for i, label := range a.session.Labels() {
		text := fmt.Sprintf("%d %s", i+1, label)
		switch {
		case i == current:
			parts = append(parts, activeStep.Render("● "+text))
		case i < current:
			parts = append(parts, doneStep.Render("✓ "+text))
		default:
			parts = append(parts, futureStep.Render("○ "+text))
		}
	}
	return strings.Join(parts, futureStep.Render("  ─  "))
}

func (a *App) renderStep() string {
	step := a.session.Current()
	switch step {
	case wizard.StepDescription:
		return a.renderDescription()
	case wizard.StepUpload:
		return a.renderUpload()
	case wizard.StepDetails:
		return a.renderDetails()
	}
	if a.session.State().GeneratedCourse == nil {
		return a.renderMissingCourse()
	}
	switch step {
	case wizard.StepLearningPath:
		progress := fmt.Sprintf("%d of %d modules completed", a.session.CompletedModules(), len(a.session.State().GeneratedCourse.Modules))
		return lipgloss.JoinVertical(lipgloss.Left, a.outline.View(), futureStep.Render(progress),
			a.hints("Enter → read lesson / load module", "q → module quiz", "ctrl+n → next", "ctrl+p → back"))
	case wizard.StepExamine:
		return lipgloss.JoinVertical(lipgloss.Left, a.outline.View(),
			a.hints("m/d → modify/delete selection", "M/D → modify/delete course", "ctrl+n → next"))
	default:
		return a.renderOutcome()
	}
}

// hints renders a key hint line. The forward key is struck out while the step
// is incomplete.
func (a *App) hints(parts ...string) string {
	enabled := a.forwardEnabled()
	rendered := make([]string, len(parts))
	for i, part := range parts {
		style := hintKey
		if !enabled && strings.HasPrefix(part, "ctrl+n") {
			style = offKey
		}
		rendered[i] = style.Render(part)
	}
	return hintLine.Render(strings.Join(rendered, "    "))
}

// renderMissingCourse is the terminal screen for steps that need generated content.
func (a *App) renderMissingCourse() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		errorStyle.Render("No course has been generated yet."),
		hintStyle.Render("ctrl+p → go back"),
	)
}

func (a *App) renderDescription() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		focusStyle.Render("What course do you want to create?"),
		a.description.View(),
		a.hints("ctrl+n → continue", "ctrl+r → start over", "ctrl+c → quit"),
	)
}

func (a *App) renderUpload() string {
	state := a.session.State()
	lines := []string{focusStyle.Render("Source material"), a.sourceInput.View(), ""}
	if !state.HasSources() {
		lines = append(lines, futureStep.Render("No files or URLs queued. Accepted: "+strings.Join(sources.AcceptedExtensions(), ", ")))
	}
	for _, file := range state.UploadedFiles {
		line := fmt.Sprintf("📄 %s (%s)", file.Name, humanBytes(file.Size))
		if file.Pages > 0 {
			line += fmt.Sprintf(" · %d page(s)", file.Pages)
		}
		lines = append(lines, line)
		if preview := a.previews[file.Name]; preview != "" {
			lines = append(lines, futureStep.Render("   “"+preview+"”"))
		}
	}
	for _, u := range state.URLs {
		lines = append(lines, "🔗 "+u)
	}
	if generated := state.GeneratedCourse; generated != nil {
		summary := fmt.Sprintf("Generated %q · %d modules · %d lessons", generated.Course, len(generated.Modules), generated.LessonCount())
		if state.SourcesProcessed != nil {
			summary += fmt.Sprintf(" · %d source(s) processed", *state.SourcesProcessed)
		}
		lines = append(lines, "", goodStyle.Render(summary))
		if info, ok := state.DecodedSourceInfo(); ok {
			lines = append(lines, fmt.Sprintf("Source: %s (%s)", info.Name, info.Type))
		}
	}
	lines = append(lines, a.hints("Enter → add", "ctrl+x → remove last", "ctrl+u → generate", "ctrl+n → next"))
	return strings.Join(lines, "\n")
}

func (a *App) renderDetails() string {
	labels := []string{"Title", "Creator", "Prerequisites", "Audience", "Difficulty", "Language", "Output"}
	var rows []string
	for i, label := range labels {
		var value string
		switch i {
		case fieldDifficulty:
			value = selector(string(course.AllDifficulties()[a.difficultyIdx]))
		case fieldLanguage:
			value = selector(string(course.AllLanguages()[a.languageIdx]))
		case fieldExport:
			value = selector(string(course.AllExportTypes()[a.exportIdx]))
		default:
			value = a.detailInputs[i].View()
		}
		name := fmt.Sprintf("%-14s", label)
		if i == a.detailFocus {
			name = focusStyle.Render(name)
		}
		rows = append(rows, name+" "+value)
	}
	rows = append(rows, a.hints("↑/↓ → field", "←/→ → choose", "ctrl+n → next", "ctrl+p → back"))
	return strings.Join(rows, "\n")
}

func selector(value string) string {
	return "‹ " + value + " ›"
}

func (a *App) renderOutcome() string {
	state := a.session.State()
	var lines []string
	switch state.ExportType {
	case course.ExportCourse:
		lines = append(lines, focusStyle.Render("Course Outline"), renderOutlineText(state.GeneratedCourse))
	default:
		lines = append(lines, focusStyle.Render(fmt.Sprintf("Export as %s", state.ExportType)))
		if a.exportResult != nil && a.exportResult.Path != "" {
			lines = append(lines, goodStyle.Render("Saved to "+a.exportResult.Path))
		}
		if a.exportResult != nil && a.exportResult.DownloadURL != "" {
			lines = append(lines, "Download: "+a.exportResult.DownloadURL)
		}
	}
	if a.video != nil {
		lines = append(lines, fmt.Sprintf("Overview video: %s (%s, %ds)", a.video.VideoURL, a.video.Style, a.video.Duration))
	}
	hint := "e → export    v → overview video    ctrl+r → start over"
	if state.ExportType == course.ExportCourse {
		hint = "v → overview video    ctrl+p → back    ctrl+r → start over"
	}
	lines = append(lines, hintStyle.Render(hint))
	return strings.Join(lines, "\n")
}

func renderOutlineText(generated *course.GeneratedCourse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", generated.Course)
	for i, module := range generated.Modules {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, module.Title)
		for _, lesson := range module.Lessons {
			fmt.Fprintf(&b, "   • %s: %s\n", lesson.Title, lesson.Summary)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (a *App) renderOverlay() string {
	switch a.overlay {
	case overlayLesson:
		return a.renderLesson()
	case overlayQuiz:
		return a.renderQuiz()
	case overlayModify:
		return lipgloss.JoinVertical(lipgloss.Left,
			focusStyle.Render("Modify "+describeTarget(a.editTarget, a.session.State())),
			a.prompt.View(),
			hintStyle.Render("Enter → send    Esc → cancel"),
		)
	case overlayConfirmDelete:
		return lipgloss.JoinVertical(lipgloss.Left,
			errorStyle.Render("Delete "+describeTarget(a.editTarget, a.session.State())+"?"),
			hintStyle.Render("y → delete    n → keep"),
		)
	}
	return ""
}

func describeTarget(target editing.Target, state course.CourseData) string {
	generated := state.GeneratedCourse
	if generated == nil {
		return string(target.Type)
	}
	switch target.Type {
	case editing.ContentCourse:
		return fmt.Sprintf("course %q", generated.Course)
	case editing.ContentModule:
		if module, ok := generated.Module(target.ModuleID); ok {
			return fmt.Sprintf("module %q", module.Title)
		}
	case editing.ContentLesson:
		if lesson, ok := generated.Lesson(target.ModuleID, target.LessonID); ok {
			return fmt.Sprintf("lesson %q", lesson.Title)
		}
	}
	return string(target.Type)
}

func (a *App) renderLesson() string {
	lines := []string{focusStyle.Render(strings.TrimSpace(strings.TrimPrefix(a.lesson.title, "   • ")))}
	switch {
	case a.lesson.content == "":
		lines = append(lines, futureStep.Render("Loading lesson…"))
	case a.lesson.translated != "":
		lines = append(lines, a.lesson.translated, futureStep.Render("Translated to "+a.lesson.langName))
	default:
		lines = append(lines, a.lesson.content)
	}
	playing := ""
	if a.audio != nil && a.audio.Playing() {
		playing = "    x → stop audio"
	}
	lines = append(lines, hintStyle.Render("t → translate    s → listen"+playing+"    Esc → close"))
	return strings.Join(lines, "\n")
}

func (a *App) renderQuiz() string {
	runner := a.quiz.runner
	q := runner.Quiz()
	lines := []string{focusStyle.Render(q.Title)}
	if result := a.quiz.result; result != nil {
		grade := result.Grade()
		lines = append(lines,
			fmt.Sprintf("Score %d/%d (%d%%) · Grade %s", result.Score, result.TotalQuestions, result.Percentage(), grade.Letter),
			goodStyle.Render(grade.Message),
			grade.Description,
			fmt.Sprintf("Time spent: %s", result.TimeSpent.Round(time.Second)),
			hintStyle.Render("Esc → back to the learning path"),
		)
		return strings.Join(lines, "\n")
	}
	question, index := runner.Current()
	answered, total := runner.Progress()
	lines = append(lines, futureStep.Render(fmt.Sprintf("Question %d of %d · %d answered", index+1, total, answered)))
	lines = append(lines, question.Question)
	for i, option := range question.Options {
		line := fmt.Sprintf("  %d) %s", i+1, option)
		if fb := a.quiz.feedback; fb != nil {
			switch {
			case i == fb.Answer:
				line = goodStyle.Render(line)
			case i == fb.Selected:
				line = errorStyle.Render(line)
			}
		}
		lines = append(lines, line)
	}
	if fb := a.quiz.feedback; fb != nil {
		verdict := errorStyle.Render("Incorrect.")
		if fb.Correct {
			verdict = goodStyle.Render("Correct!")
		}
		lines = append(lines, "", verdict+" "+fb.Explanation)
	}
	lines = append(lines, hintStyle.Render("1-4 → answer    n → next    p → previous    f → finish    Esc → close"))
	return strings.Join(lines, "\n")
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s · %d entries", fileName, total))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return boxStyle.Render(fmt.Sprintf("%s\n%s", head, body))
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
