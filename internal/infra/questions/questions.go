// Package questions loads question banks from TOML files. It implements
// domain.QuestionSource; the content of each question, including which
// option is correct, is data and is taken as written.
package questions

import (
	_ "embed"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/desafio-logico/desafio/internal/domain"
)

//go:embed builtin.toml
var builtinBank string

type bankFile struct {
	Questions []bankQuestion `toml:"question"`
}

type bankQuestion struct {
	Level        string   `toml:"level"`
	Text         string   `toml:"text"`
	Options      []string `toml:"options"`
	CorrectIndex int      `toml:"correct_index"`
}

// Source holds questions grouped by level, in file order.
type Source struct {
	byLevel map[domain.LevelID][]domain.Question
	seen    map[domain.LevelID]map[string]struct{}
}

var _ domain.QuestionSource = (*Source)(nil)

// NewSource returns an empty source.
func NewSource() *Source {
	return &Source{
		byLevel: make(map[domain.LevelID][]domain.Question),
		seen:    make(map[domain.LevelID]map[string]struct{}),
	}
}

// Builtin returns a source with the embedded sample bank.
func Builtin() *Source {
	s := NewSource()
	if err := s.Parse(strings.NewReader(builtinBank)); err != nil {
		panic(fmt.Sprintf("builtin question bank: %v", err))
	}
	return s
}

// Load returns the banks in dir, or the built-in bank when dir is empty or
// holds no .toml files.
func Load(dir string) (*Source, error) {
	if dir == "" {
		return Builtin(), nil
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.toml"))
	if err != nil {
		return nil, fmt.Errorf("list banks: %w", err)
	}
	if len(files) == 0 {
		log.Printf("[questions] no banks in %s, using built-in sample", dir)
		return Builtin(), nil
	}
	sort.Strings(files)

	s := NewSource()
	for _, path := range files {
		if err := s.ParseFile(path); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ParseFile adds the questions of one bank file.
func (s *Source) ParseFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open bank: %w", err)
	}
	defer f.Close()
	if err := s.Parse(f); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

// Parse adds the questions of a TOML bank. A question whose text repeats
// one already on its level is dropped: text is the anti-farm identity.
func (s *Source) Parse(r io.Reader) error {
	var bank bankFile
	if _, err := toml.NewDecoder(r).Decode(&bank); err != nil {
		return fmt.Errorf("parse bank: %w", err)
	}

	for i, q := range bank.Questions {
		level := domain.LevelID(strings.ToLower(strings.TrimSpace(q.Level)))
		if err := validate(level, q); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}

		key := strings.Join(strings.Fields(q.Text), " ")
		if s.seen[level] == nil {
			s.seen[level] = make(map[string]struct{})
		}
		if _, dup := s.seen[level][key]; dup {
			log.Printf("[questions] duplicate on %s dropped: %q", level, key)
			continue
		}
		s.seen[level][key] = struct{}{}

		s.byLevel[level] = append(s.byLevel[level], domain.Question{
			Text:         strings.TrimSpace(q.Text),
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
		})
	}
	return nil
}

func validate(level domain.LevelID, q bankQuestion) error {
	switch {
	case !level.Valid():
		return fmt.Errorf("%w: %q", domain.ErrUnknownLevel, q.Level)
	case strings.TrimSpace(q.Text) == "":
		return fmt.Errorf("%w: blank text", domain.ErrInvalidQuestion)
	case len(q.Options) < 2:
		return fmt.Errorf("%w: needs at least 2 options", domain.ErrInvalidQuestion)
	case q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options):
		return fmt.Errorf("%w: correct_index %d out of range", domain.ErrInvalidQuestion, q.CorrectIndex)
	}
	return nil
}

// QuestionsForLevel returns a copy of level's pool.
func (s *Source) QuestionsForLevel(level domain.LevelID) []domain.Question {
	pool := s.byLevel[level]
	out := make([]domain.Question, len(pool))
	copy(out, pool)
	return out
}

// Count returns the number of questions per level.
func (s *Source) Count() map[domain.LevelID]int {
	out := make(map[domain.LevelID]int, len(s.byLevel))
	for l, qs := range s.byLevel {
		out[l] = len(qs)
	}
	return out
}
