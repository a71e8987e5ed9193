package config

import "fmt"

// ValidationError describes a single validation problem.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a Profile for errors and returns all problems found.
func Validate(p *Profile) []ValidationError {
	var errs []ValidationError

	if p.Debugger.Path == "" {
		errs = append(errs, ValidationError{Field: "debugger.path", Message: "debugger executable is required"})
	}

	required := []struct {
		field, value string
	}{
		{"commands.run", p.Commands.Run},
		{"commands.read", p.Commands.Read},
		{"commands.resume", p.Commands.Resume},
		{"grammar.trigger", p.Grammar.Trigger},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, ValidationError{Field: r.field, Message: "must not be empty"})
		}
	}

	if p.IdleGap.Duration <= 0 {
		errs = append(errs, ValidationError{
			Field:   "idle_gap",
			Message: fmt.Sprintf("must be positive, got %s", p.IdleGap.Duration),
		})
	}
	if p.Console.DrainDelay.Duration < 0 {
		errs = append(errs, ValidationError{Field: "console.drain_delay", Message: "must not be negative"})
	}
	if p.StopTimeout.Duration < 0 {
		errs = append(errs, ValidationError{Field: "stop_timeout", Message: "must not be negative"})
	}

	errs = append(errs, validateConsoleWords(p.Console)...)
	return errs
}

// validateConsoleWords ensures each console word is set and unique.
func validateConsoleWords(c ConsoleConfig) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]string)
	for _, w := range []struct{ field, word string }{
		{"console.quit_word", c.QuitWord},
		{"console.setup_word", c.SetupWord},
		{"console.spy_word", c.SpyWord},
	} {
		if w.word == "" {
			errs = append(errs, ValidationError{Field: w.field, Message: "must not be empty"})
			continue
		}
		if other, ok := seen[w.word]; ok {
			errs = append(errs, ValidationError{
				Field:   w.field,
				Message: fmt.Sprintf("%q is already used by %s", w.word, other),
			})
			continue
		}
		seen[w.word] = w.field
	}
	return errs
}
