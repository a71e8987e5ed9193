package gdb

import (
	"bytes"
	"regexp"
	"strconv"
)

// DefaultTrigger is the notification the debugger prints when breakpoint BK1
// halts the target.
const DefaultTrigger = "warning: Break on advanced breakpoint BK1 of Debug Module 0"

// valuePattern matches a register reply such as "(gdb) $3 = 65". Prompts of
// commands that printed nothing stay on the line, so more than one may lead.
var valuePattern = regexp.MustCompile(`^(?:\(gdb\) )+\$\d+ = (\d+)`)

// EventKind classifies one line of debugger output.
type EventKind int

const (
	// EventNoise is any line the protocol does not care about.
	EventNoise EventKind = iota
	// EventTrigger is a breakpoint trigger notification.
	EventTrigger
	// EventValue is a register reply carrying a byte.
	EventValue
	// EventMalformedValue is a register reply whose value does not fit a byte.
	EventMalformedValue
)

func (k EventKind) String() string {
	switch k {
	case EventTrigger:
		return "trigger"
	case EventValue:
		return "value"
	case EventMalformedValue:
		return "malformed-value"
	default:
		return "noise"
	}
}

// Event is the result of classifying a line.
type Event struct {
	Kind  EventKind
	Value byte
}

// Grammar recognises the two responses the spy reacts to.
type Grammar struct {
	trigger []byte
}

// NewGrammar returns a grammar for trigger. An empty trigger selects
// DefaultTrigger.
func NewGrammar(trigger string) *Grammar {
	if trigger == "" {
		trigger = DefaultTrigger
	}
	return &Grammar{trigger: []byte(trigger)}
}

// Classify matches line against the trigger substring first, then the
// register reply pattern. Replies are only accepted from the primary stream.
func (g *Grammar) Classify(line TaggedLine) Event {
	if bytes.Contains(line.Text, g.trigger) {
		return Event{Kind: EventTrigger}
	}
	if line.Origin != Primary {
		return Event{Kind: EventNoise}
	}

	m := valuePattern.FindSubmatch(line.Text)
	if m == nil {
		return Event{Kind: EventNoise}
	}
	v, err := strconv.ParseUint(string(m[1]), 10, 8)
	if err != nil {
		return Event{Kind: EventMalformedValue}
	}
	return Event{Kind: EventValue, Value: byte(v)}
}
