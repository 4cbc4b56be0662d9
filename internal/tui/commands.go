package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/course-creator/internal/audio"
	"github.com/kingrea/course-creator/internal/course"
	"github.com/kingrea/course-creator/internal/editing"
	"github.com/kingrea/course-creator/internal/gateway"
	"github.com/kingrea/course-creator/internal/quiz"
	"github.com/kingrea/course-creator/internal/wizard"
)

// Results of async work. Each carries the key it was started under so the
// matching control can be re-enabled.

type uploadFinishedMsg struct {
	generated *course.GeneratedCourse
	err       error
}

type lessonLoadedMsg struct {
	moduleID string
	lessonID string
	content  string
	err      error
}

type lessonsPrefetchedMsg struct {
	moduleID string
	count    int
	err      error
}

type languagesLoadedMsg struct {
	options []wizard.LanguageOption
	err     error
}

type translatedMsg struct {
	lessonID    string
	translation gateway.Translation
	err         error
}

type speechReadyMsg struct {
	label    string
	language string
	clip     []byte
	err      error
}

type quizLoadedMsg struct {
	moduleID string
	runner   *quiz.Runner
	err      error
}

type editFinishedMsg struct {
	key    string
	action editing.Action
	target editing.Target
	err    error
}

type exportFinishedMsg struct {
	file wizard.ExportFile
	err  error
}

type videoReadyMsg struct {
	video gateway.Video
	err   error
}

type resetFinishedMsg struct{}

func (a *App) uploadCmd() tea.Cmd {
	return func() tea.Msg {
		generated, err := a.session.Upload(a.ctx)
		return uploadFinishedMsg{generated: generated, err: err}
	}
}

func (a *App) lessonCmd(moduleID, lessonID string) tea.Cmd {
	return func() tea.Msg {
		content, err := a.session.LessonContent(a.ctx, moduleID, lessonID)
		return lessonLoadedMsg{moduleID: moduleID, lessonID: lessonID, content: content, err: err}
	}
}

func (a *App) prefetchCmd(moduleID string, count int) tea.Cmd {
	return func() tea.Msg {
		err := a.session.PrefetchLessons(a.ctx, moduleID)
		return lessonsPrefetchedMsg{moduleID: moduleID, count: count, err: err}
	}
}

func (a *App) languagesCmd() tea.Cmd {
	return func() tea.Msg {
		options, err := a.session.TranslationLanguages(a.ctx)
		return languagesLoadedMsg{options: options, err: err}
	}
}

func (a *App) translateCmd(lessonID, content, lang string) tea.Cmd {
	return func() tea.Msg {
		translation, err := a.session.Translate(a.ctx, content, lang)
		return translatedMsg{lessonID: lessonID, translation: translation, err: err}
	}
}

func (a *App) speechCmd(label, content, lang string) tea.Cmd {
	return func() tea.Msg {
		clip, err := a.session.Speech(a.ctx, content, lang)
		return speechReadyMsg{label: label, language: lang, clip: clip, err: err}
	}
}

func (a *App) quizCmd(moduleID string) tea.Cmd {
	return func() tea.Msg {
		runner, err := a.session.FetchQuiz(a.ctx, moduleID)
		return quizLoadedMsg{moduleID: moduleID, runner: runner, err: err}
	}
}

func (a *App) deleteCmd(key string, target editing.Target) tea.Cmd {
	return func() tea.Msg {
		err := a.session.Delete(a.ctx, target)
		return editFinishedMsg{key: key, action: editing.ActionDelete, target: target, err: err}
	}
}

func (a *App) modifyCmd(key string, target editing.Target, prompt string) tea.Cmd {
	return func() tea.Msg {
		err := a.session.Modify(a.ctx, target, prompt)
		return editFinishedMsg{key: key, action: editing.ActionModify, target: target, err: err}
	}
}

func (a *App) exportCmd() tea.Cmd {
	return func() tea.Msg {
		file, err := a.session.Export(a.ctx)
		return exportFinishedMsg{file: file, err: err}
	}
}

func (a *App) videoCmd() tea.Cmd {
	return func() tea.Msg {
		video, err := a.session.Video(a.ctx, wizard.VideoOverview, gateway.VideoRequest{})
		return videoReadyMsg{video: video, err: err}
	}
}

func (a *App) resetCmd() tea.Cmd {
	return func() tea.Msg {
		a.session.Reset(a.ctx)
		return resetFinishedMsg{}
	}
}

func (a *App) playClip(msg speechReadyMsg) error {
	if a.audio == nil {
		return nil
	}
	_, err := a.audio.Start(a.ctx, audio.Clip{Label: msg.label, Language: msg.language, Data: msg.clip})
	return err
}
