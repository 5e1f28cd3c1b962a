package progress

import (
	"strings"

	"github.com/desafio-logico/desafio/internal/domain"
)

// NormalizeQuestionKey turns question text into its anti-farm identity:
// surrounding whitespace trimmed, inner runs collapsed to one space.
func NormalizeQuestionKey(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// MarkSeen records that the question was shown on level. Reports whether
// it was new. Blank keys are ignored.
func (s *Store) MarkSeen(level domain.LevelID, questionKey string) bool {
	k := NormalizeQuestionKey(questionKey)
	if k == "" || !level.Valid() {
		return false
	}
	return s.addToSet(s.scope.Key(prefixSeen+string(level)), k)
}

// IsSeen reports whether the question was ever shown on level.
func (s *Store) IsSeen(level domain.LevelID, questionKey string) bool {
	_, ok := s.getSet(s.scope.Key(prefixSeen + string(level)))[NormalizeQuestionKey(questionKey)]
	return ok
}

// MarkScoredIfFirstTime is the only gate for awarding points: it returns
// true exactly once per (user, level, question) and false forever after.
// The question is marked seen as well.
func (s *Store) MarkScoredIfFirstTime(level domain.LevelID, questionKey string) bool {
	k := NormalizeQuestionKey(questionKey)
	if k == "" || !level.Valid() {
		return false
	}
	s.MarkSeen(level, k)
	return s.addToSet(s.scope.Key(prefixScored+string(level)), k)
}

// IsScored reports whether the question already earned points on level.
func (s *Store) IsScored(level domain.LevelID, questionKey string) bool {
	_, ok := s.getSet(s.scope.Key(prefixScored + string(level)))[NormalizeQuestionKey(questionKey)]
	return ok
}

// SeenCount returns how many distinct questions were shown on level.
func (s *Store) SeenCount(level domain.LevelID) int {
	return len(s.secure.GetStringSet(s.scope.Key(prefixSeen + string(level))))
}

// ScoredCount returns how many distinct questions earned points on level.
func (s *Store) ScoredCount(level domain.LevelID) int {
	return len(s.secure.GetStringSet(s.scope.Key(prefixScored + string(level))))
}
