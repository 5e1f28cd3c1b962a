package progress

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/desafio-logico/desafio/internal/domain"
	"github.com/desafio-logico/desafio/internal/infra/metrics"
)

// MigrationFailure records one key that could not be moved.
type MigrationFailure struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// MigrationReport summarizes one MigrateIfNeeded call.
type MigrationReport struct {
	User        string             `json:"user"`
	AlreadyDone bool               `json:"already_done"`
	Migrated    int                `json:"migrated"`
	Skipped     int                `json:"skipped"` // secure tier already had the key
	Failed      []MigrationFailure `json:"failed,omitempty"`
}

// Done reports whether the migration is complete for this user.
func (r MigrationReport) Done() bool {
	return r.AlreadyDone || len(r.Failed) == 0
}

var errUnreadable = errors.New("value unreadable as declared kind")

// MigrateIfNeeded moves this user's keys into the secure tier. Rows left
// in the fallback tier by a run without a cipher are drained on every call,
// since the cipher may have been down again since the last one. The plain
// tier is drained once. Keys are handled one at a time; a failing key is
// reported and left in place without stopping the others. The plain done
// flag is only set when nothing failed, so a later call retries the
// leftovers. A value already in the secure tier always wins.
func (s *Store) MigrateIfNeeded() MigrationReport {
	rep := MigrationReport{User: s.scope.User()}
	if s.fallback != nil {
		s.drain(s.fallback, &rep)
	}

	flag := s.scope.Key(keyMigrated)
	if s.plain.GetBool(flag, false) {
		rep.AlreadyDone = true
		return rep
	}

	failedBefore := len(rep.Failed)
	s.drain(s.plain, &rep)

	if len(rep.Failed) == failedBefore {
		if err := s.plain.PutBool(flag, true); err != nil {
			log.Printf("[progress] migration flag for %s not saved: %v", rep.User, err)
		}
	} else {
		log.Printf("[progress] migration for %s: %d migrated, %d failed; will retry",
			rep.User, rep.Migrated, len(rep.Failed))
	}
	return rep
}

func (s *Store) drain(src domain.KeyValueStore, rep *MigrationReport) {
	for _, spec := range s.keySpecs() {
		for _, key := range s.resolve(src, spec) {
			s.migrateKey(src, key, spec.Kind, rep)
		}
	}
}

func (s *Store) migrateKey(src domain.KeyValueStore, key string, kind ValueKind, rep *MigrationReport) {
	if !src.Contains(key) {
		return
	}

	if s.secure.Contains(key) {
		rep.Skipped++
		metrics.MigrationKeys.WithLabelValues("skipped").Inc()
	} else if err := copyValue(src, s.secure, key, kind); err != nil {
		rep.Failed = append(rep.Failed, MigrationFailure{Key: key, Reason: err.Error()})
		metrics.MigrationKeys.WithLabelValues("failed").Inc()
		log.Printf("[progress] migrate %s: %v", key, err)
		return
	} else {
		rep.Migrated++
		metrics.MigrationKeys.WithLabelValues("migrated").Inc()
	}

	if err := src.Remove(key); err != nil {
		rep.Failed = append(rep.Failed, MigrationFailure{Key: key, Reason: "remove old copy: " + err.Error()})
		log.Printf("[progress] remove old %s: %v", key, err)
	}
}

// copyValue reads key from src as kind and writes it to dst. A value
// stored under another kind, or not parseable, reads differently under two
// distinct defaults; that is how it is told apart from a real value.
func copyValue(src, dst domain.KeyValueStore, key string, kind ValueKind) error {
	var err error
	switch kind {
	case KindString:
		const probe = "\x00"
		v := src.GetString(key, probe)
		if v == probe {
			return errUnreadable
		}
		err = dst.PutString(key, v)
	case KindInt:
		v := src.GetInt(key, 0)
		if v != src.GetInt(key, 1) {
			return errUnreadable
		}
		err = dst.PutInt(key, v)
	case KindLong:
		v := src.GetLong(key, 0)
		if v != src.GetLong(key, 1) {
			return errUnreadable
		}
		err = dst.PutLong(key, v)
	case KindBool:
		v := src.GetBool(key, false)
		if v != src.GetBool(key, true) {
			return errUnreadable
		}
		err = dst.PutBool(key, v)
	case KindSet:
		err = dst.PutStringSet(key, src.GetStringSet(key))
	default:
		return fmt.Errorf("unknown kind %d", kind)
	}
	if err != nil {
		return fmt.Errorf("write secure: %w", err)
	}
	return nil
}

// resolve expands a spec into the concrete keys of this user present in kv.
func (s *Store) resolve(kv domain.KeyValueStore, spec KeySpec) []string {
	if !spec.Dynamic {
		return []string{s.scope.Key(spec.Name)}
	}
	prefix := s.scope.Key(spec.Name)
	var keys []string
	for _, k := range kv.Keys(prefix) {
		suffix := strings.TrimPrefix(k, prefix)
		if spec.ValidSuffix == nil || spec.ValidSuffix(suffix) {
			keys = append(keys, k)
		}
	}
	return keys
}
