// Package bank loads exam definitions from YAML or JSON files.
package bank

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pavelanni/aptitude/internal/model"
)

// File is the on-disk shape of an exam definition.
type File struct {
	Title        string            `json:"title" yaml:"title"`
	Questions    []QuestionImport  `json:"questions" yaml:"questions"`
	Explanations map[string]string `json:"explanations" yaml:"explanations"`
	Layout       *LayoutImport     `json:"layout,omitempty" yaml:"layout,omitempty"`
	Durations    map[string]string `json:"durations,omitempty" yaml:"durations,omitempty"`
}

// QuestionImport is one question as written in an exam file.
type QuestionImport struct {
	ID      string         `json:"id" yaml:"id"`
	Prompt  string         `json:"prompt" yaml:"prompt"`
	Options []model.Option `json:"options" yaml:"options"`
	Answer  string         `json:"answer" yaml:"answer"`
}

// LayoutImport lists the mount points a page provides.
type LayoutImport struct {
	Mounts []string `json:"mounts" yaml:"mounts"`
}

// Load reads and validates an exam definition.
func Load(path string) (model.Exam, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Exam{}, fmt.Errorf("read %s: %w", path, err)
	}
	f, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return model.Exam{}, fmt.Errorf("parse %s: %w", path, err)
	}
	exam, err := Build(f)
	if err != nil {
		return model.Exam{}, fmt.Errorf("validate %s: %w", path, err)
	}
	exam.Fingerprint = Fingerprint(data)
	slog.Info("loaded exam",
		"path", path,
		"title", exam.Title,
		"questions", len(exam.Questions),
		"sha256", exam.Fingerprint,
	)
	return exam, nil
}

// Decode unmarshals an exam file; ext selects JSON for ".json" and YAML otherwise.
func Decode(data []byte, ext string) (File, error) {
	var f File
	var err error
	if strings.EqualFold(ext, ".json") {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	return f, err
}

// Build converts a decoded file into an Exam, parsing every identifier once.
func Build(f File) (model.Exam, error) {
	exam := model.Exam{
		Title:        f.Title,
		Explanations: f.Explanations,
		Durations:    make(map[model.Section]time.Duration),
	}
	if exam.Explanations == nil {
		exam.Explanations = map[string]string{}
	}

	seen := make(map[string]bool, len(f.Questions))
	for _, qi := range f.Questions {
		sec, num, err := ParseID(qi.ID)
		if err != nil {
			return model.Exam{}, err
		}
		if seen[qi.ID] {
			return model.Exam{}, fmt.Errorf("duplicate question id %q", qi.ID)
		}
		seen[qi.ID] = true
		if qi.Answer == "" {
			return model.Exam{}, fmt.Errorf("question %q has no answer", qi.ID)
		}
		q := model.Question{
			ID:      qi.ID,
			Section: sec,
			Number:  num,
			Prompt:  qi.Prompt,
			Options: qi.Options,
			Answer:  qi.Answer,
		}
		if !q.HasOption(qi.Answer) {
			return model.Exam{}, fmt.Errorf("question %q: answer %q is not an option", qi.ID, qi.Answer)
		}
		exam.Questions = append(exam.Questions, q)
	}

	if f.Layout != nil {
		mounts := make([]model.Mount, 0, len(f.Layout.Mounts))
		for _, name := range f.Layout.Mounts {
			m, err := model.ParseMount(name)
			if err != nil {
				return model.Exam{}, fmt.Errorf("layout: %w", err)
			}
			mounts = append(mounts, m)
		}
		exam.Layout = model.NewLayout(mounts...)
	}

	for name, raw := range f.Durations {
		sec, err := model.ParseSection(name)
		if err != nil {
			return model.Exam{}, fmt.Errorf("duration %q: %w", name, err)
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return model.Exam{}, fmt.Errorf("duration %q: %w", name, err)
		}
		exam.Durations[sec] = d
	}

	return exam, nil
}

// ParseID splits an identifier into its section and number: "m12" is math 12 and
// "7" is reading 7.
func ParseID(id string) (model.Section, int, error) {
	sec := model.SectionReading
	digits := id
	if rest, ok := strings.CutPrefix(id, model.SectionMath.Prefix()); ok {
		sec = model.SectionMath
		digits = rest
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 || digits == "" || digits[0] == '+' || digits[0] == '-' {
		return "", 0, fmt.Errorf("%q: %w", id, model.ErrInvalidQuestionID)
	}
	return sec, n, nil
}

// Fingerprint returns the hex sha256 of an exam file.
func Fingerprint(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// LoadAnswers reads a selections file: a map of question id to chosen option.
func LoadAnswers(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	answers := map[string]string{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &answers)
	} else {
		err = yaml.Unmarshal(data, &answers)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return answers, nil
}
