package model

import "fmt"

// Channel identifies one of the two logical output streams of a source.
type Channel int

const (
	Primary   Channel = iota // stdout-like
	Secondary                // stderr-like
)

func (c Channel) String() string {
	switch c {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// Other returns the opposite channel.
func (c Channel) Other() Channel {
	if c == Primary {
		return Secondary
	}
	return Primary
}

// ParseChannel maps config values ("primary", "stdout", "secondary", "stderr") to a Channel.
func ParseChannel(s string) (Channel, error) {
	switch s {
	case "primary", "stdout":
		return Primary, nil
	case "secondary", "stderr", "":
		return Secondary, nil
	default:
		return Secondary, fmt.Errorf("unknown channel %q", s)
	}
}

// SourceKind distinguishes process-backed and file-backed sources.
type SourceKind int

const (
	KindCommand SourceKind = iota
	KindFile
)

func (k SourceKind) String() string {
	if k == KindFile {
		return "file"
	}
	return "command"
}

// SourceSpec is the construction input for one source: an argv for commands
// or a path (relative to the working directory) for files.
type SourceSpec struct {
	Kind SourceKind
	Argv []string
	Path string
}

// Name returns a short human-readable label for the spec.
func (s SourceSpec) Name() string {
	if s.Kind == KindFile {
		return s.Path
	}
	if len(s.Argv) == 0 {
		return ""
	}
	name := s.Argv[0]
	for _, a := range s.Argv[1:] {
		name += " " + a
	}
	return name
}

// Line is one ingested output line. Lines are immutable once appended to a buffer.
type Line struct {
	Seq      uint64 // global arrival order across all sources
	SourceID int
	Channel  Channel
	Raw      string
	Plain    string // Raw with terminal color codes removed, computed once at ingest
}
