package gdb

// Origin identifies the debugger output stream a line came from.
type Origin int

const (
	// Primary is the debugger's stdout.
	Primary Origin = iota
	// Diagnostic is the debugger's stderr.
	Diagnostic
)

func (o Origin) String() string {
	switch o {
	case Primary:
		return "primary"
	case Diagnostic:
		return "diagnostic"
	default:
		return "unknown"
	}
}

// Prefix returns the tag written in front of a line in transcripts.
func (o Origin) Prefix() string {
	if o == Diagnostic {
		return "E>"
	}
	return "O>"
}

// TaggedLine is one raw line of debugger output, trailing newline included.
// It is not modified after the reader that produced it hands it off.
type TaggedLine struct {
	Origin Origin
	Text   []byte
}

// String renders the line with its origin prefix, e.g. "O>(gdb) $1 = 72\n".
func (l TaggedLine) String() string {
	return l.Origin.Prefix() + string(l.Text)
}
