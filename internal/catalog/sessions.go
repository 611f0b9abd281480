package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/shlex"

	"github.com/tinytelemetry/ripple/internal/model"
)

// SessionType declares how session entries are interpreted.
type SessionType string

const (
	SessionCommand SessionType = "command"
	SessionFile    SessionType = "file"
	SessionMixed   SessionType = "mixed" // files when the path exists, commands otherwise
)

// ParseSessionType maps a stored type to a SessionType.
func ParseSessionType(s string) (SessionType, error) {
	switch SessionType(strings.ToLower(strings.TrimSpace(s))) {
	case SessionCommand:
		return SessionCommand, nil
	case SessionFile:
		return SessionFile, nil
	case SessionMixed, "":
		return SessionMixed, nil
	default:
		return "", fmt.Errorf("unknown session type %q", s)
	}
}

// Session is an ordered list of source strings.
type Session struct {
	Commands []string    `json:"commands" yaml:"commands" toml:"commands"`
	Type     SessionType `json:"type" yaml:"type" toml:"type"`
}

// SourceSpec turns one source string into a spec. Command strings are
// split with shell quoting rules; resolving the executable is left to the
// caller.
func SourceSpec(entry string, typ SessionType) (model.SourceSpec, error) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return model.SourceSpec{}, errors.New("empty source")
	}
	if typ == SessionFile || (typ == SessionMixed && isFile(entry)) {
		return model.SourceSpec{Kind: model.KindFile, Path: entry}, nil
	}
	argv, err := shlex.Split(entry)
	if err != nil {
		return model.SourceSpec{}, fmt.Errorf("split %q: %w", entry, err)
	}
	if len(argv) == 0 {
		return model.SourceSpec{}, fmt.Errorf("split %q: no words", entry)
	}
	return model.SourceSpec{Kind: model.KindCommand, Argv: argv}, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Specs converts every entry of the session.
func (s Session) Specs() ([]model.SourceSpec, error) {
	typ, err := ParseSessionType(string(s.Type))
	if err != nil {
		return nil, err
	}
	specs := make([]model.SourceSpec, 0, len(s.Commands))
	for _, entry := range s.Commands {
		spec, err := SourceSpec(entry, typ)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// SessionFromSpecs builds a session describing specs.
func SessionFromSpecs(specs []model.SourceSpec) Session {
	sess := Session{Commands: make([]string, 0, len(specs))}
	var commands, files int
	for _, spec := range specs {
		if spec.Kind == model.KindFile {
			files++
			sess.Commands = append(sess.Commands, spec.Path)
			continue
		}
		commands++
		sess.Commands = append(sess.Commands, joinArgv(spec.Argv))
	}
	switch {
	case files == 0:
		sess.Type = SessionCommand
	case commands == 0:
		sess.Type = SessionFile
	default:
		sess.Type = SessionMixed
	}
	return sess
}

func joinArgv(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		if a == "" || strings.ContainsAny(a, " \t\n'\"\\#") {
			quoted[i] = "'" + strings.ReplaceAll(a, "'", `'"'"'`) + "'"
		} else {
			quoted[i] = a
		}
	}
	return strings.Join(quoted, " ")
}

// Sessions returns the names of stored sessions.
func (s *Store) Sessions() ([]string, error) { return s.list(sessionsDir) }

// LoadSession reads the named session.
func (s *Store) LoadSession(name string) (Session, error) {
	path, format, err := s.find(sessionsDir, name)
	if err != nil {
		return Session{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Session{}, fmt.Errorf("read session %q: %w", name, err)
	}
	var sess Session
	if err := decode(format, data, &sess); err != nil {
		return Session{}, fmt.Errorf("decode session %q: %w", name, err)
	}
	if len(sess.Commands) == 0 {
		return Session{}, fmt.Errorf("session %q has no commands", name)
	}
	if _, err := ParseSessionType(string(sess.Type)); err != nil {
		return Session{}, fmt.Errorf("session %q: %w", name, err)
	}
	return sess, nil
}

// SaveSession stores sess as JSON under name.
func (s *Store) SaveSession(name string, sess Session) error {
	if len(sess.Commands) == 0 {
		return fmt.Errorf("session %q has no commands", name)
	}
	return s.write(sessionsDir, name, FormatJSON, sess)
}

// RemoveSession deletes the named session.
func (s *Store) RemoveSession(name string) error { return s.remove(sessionsDir, name) }
