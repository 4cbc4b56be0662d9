package course

import (
	"fmt"
	"strings"
)

// ExportType is the output the author chose on the details step.
type ExportType string

const (
	ExportCourse     ExportType = "Course"
	ExportPowerPoint ExportType = "PowerPoint"
	ExportPDF        ExportType = "PDF"
)

// AllExportTypes lists export types in display order.
func AllExportTypes() []ExportType {
	return []ExportType{ExportCourse, ExportPowerPoint, ExportPDF}
}

// Valid reports whether e is a known export type.
func (e ExportType) Valid() bool {
	switch e {
	case ExportCourse, ExportPowerPoint, ExportPDF:
		return true
	}
	return false
}

// Document reports whether the export produces a downloadable file.
func (e ExportType) Document() bool {
	return e == ExportPowerPoint || e == ExportPDF
}

// ParseExportType matches case-insensitively, accepting "ppt"/"pptx" for PowerPoint.
func ParseExportType(raw string) (ExportType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "course", "outline":
		return ExportCourse, nil
	case "powerpoint", "ppt", "pptx":
		return ExportPowerPoint, nil
	case "pdf":
		return ExportPDF, nil
	}
	return "", fmt.Errorf("unknown export type %q", raw)
}

// Difficulty is the learner level a course targets.
type Difficulty string

const (
	Beginner     Difficulty = "Beginner"
	Intermediate Difficulty = "Intermediate"
	Advanced     Difficulty = "Advanced"
	Expert       Difficulty = "Expert"
)

// AllDifficulties lists difficulties from easiest to hardest.
func AllDifficulties() []Difficulty {
	return []Difficulty{Beginner, Intermediate, Advanced, Expert}
}

func (d Difficulty) Valid() bool {
	for _, known := range AllDifficulties() {
		if d == known {
			return true
		}
	}
	return false
}

func ParseDifficulty(raw string) (Difficulty, error) {
	for _, known := range AllDifficulties() {
		if strings.EqualFold(strings.TrimSpace(raw), string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q", raw)
}

// Language is the course language. Codes follow the translation service.
type Language string

const (
	English  Language = "English"
	Spanish  Language = "Spanish"
	French   Language = "French"
	German   Language = "German"
	Chinese  Language = "Chinese"
	Japanese Language = "Japanese"
)

var languageCodes = map[Language]string{
	English:  "en",
	Spanish:  "es",
	French:   "fr",
	German:   "de",
	Chinese:  "zh",
	Japanese: "ja",
}

func AllLanguages() []Language {
	return []Language{English, Spanish, French, German, Chinese, Japanese}
}

func (l Language) Valid() bool {
	_, ok := languageCodes[l]
	return ok
}

// Code returns the two-letter language code, or "" for unknown languages.
func (l Language) Code() string {
	return languageCodes[l]
}

// ParseLanguage accepts either a language name or its code.
func ParseLanguage(raw string) (Language, error) {
	trimmed := strings.TrimSpace(raw)
	for lang, code := range languageCodes {
		if strings.EqualFold(trimmed, string(lang)) || strings.EqualFold(trimmed, code) {
			return lang, nil
		}
	}
	return "", fmt.Errorf("unknown language %q", raw)
}
