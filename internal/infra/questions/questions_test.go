package questions

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desafio-logico/desafio/internal/domain"
)

func TestBuiltin_EveryLevelCanBuildADaily(t *testing.T) {
	s := Builtin()
	for _, l := range append([]domain.LevelID{domain.LevelEnigma}, domain.OrderedLevels...) {
		if n := len(s.QuestionsForLevel(l)); n < domain.DailyQuestionCount {
			t.Errorf("%s has %d questions, want >= %d", l, n, domain.DailyQuestionCount)
		}
	}
}

func TestParse_DropsDuplicateText(t *testing.T) {
	input := `
[[question]]
level = "beginner"
text = "Quanto é 1 + 1?"
options = ["1", "2"]
correct_index = 1

[[question]]
level = "beginner"
text = "  Quanto  é 1 + 1?  "
options = ["2", "3"]
correct_index = 0
`
	s := NewSource()
	if err := s.Parse(strings.NewReader(input)); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if got := len(s.QuestionsForLevel(domain.LevelBeginner)); got != 1 {
		t.Errorf("questions = %d, want 1", got)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name, input string
		want        error
	}{
		{"unknown level", `[[question]]
level = "legendary"
text = "x"
options = ["a", "b"]`, domain.ErrUnknownLevel},
		{"one option", `[[question]]
level = "beginner"
text = "x"
options = ["a"]`, domain.ErrInvalidQuestion},
		{"index out of range", `[[question]]
level = "beginner"
text = "x"
options = ["a", "b"]
correct_index = 2`, domain.ErrInvalidQuestion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewSource().Parse(strings.NewReader(tt.input))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoad_Dir(t *testing.T) {
	dir := t.TempDir()
	bank := `[[question]]
level = "expert"
text = "Pergunta difícil?"
options = ["sim", "não"]
correct_index = 0
`
	if err := os.WriteFile(filepath.Join(dir, "a.toml"), []byte(bank), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := s.Count()[domain.LevelExpert]; got != 1 {
		t.Errorf("expert = %d, want 1", got)
	}
	if got := len(s.QuestionsForLevel(domain.LevelBeginner)); got != 0 {
		t.Errorf("beginner = %d, want 0 (built-in not mixed in)", got)
	}
}

func TestLoad_EmptyDirFallsBack(t *testing.T) {
	s, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(s.QuestionsForLevel(domain.LevelBeginner)) == 0 {
		t.Error("empty dir should fall back to the built-in bank")
	}
}

func TestQuestionsForLevel_ReturnsCopy(t *testing.T) {
	s := Builtin()
	pool := s.QuestionsForLevel(domain.LevelBeginner)
	pool[0].Text = "changed"
	if s.QuestionsForLevel(domain.LevelBeginner)[0].Text == "changed" {
		t.Error("caller mutation leaked into the source")
	}
}
