package poet

import "context"

// Completer is the completion service the generator depends on.
// Tests inject fakes through this interface.
type Completer interface {
	// Complete returns the raw text produced for prompt.
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenAI must satisfy Completer.
var _ Completer = (*OpenAI)(nil)
