// Package poet produces haiku through an external completion service.
package poet

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/eldtechnologies/haikunft/internal/metrics"
	"github.com/eldtechnologies/haikunft/internal/models"
)

var (
	// ErrNoCompletion is returned when the service answered without any text.
	ErrNoCompletion = errors.New("completion service returned no choices")
	// ErrMalformedCompletion is returned when the text does not end in three lines.
	ErrMalformedCompletion = errors.New("completion does not contain three lines")
)

// Request holds the optional style and topic modifiers.
type Request struct {
	Adjective string
	Topic     string
}

// Generator turns completions into haiku.
type Generator struct {
	completer Completer
	logger    zerolog.Logger
	seed      func() int
}

// NewGenerator creates a Generator backed by completer.
func NewGenerator(completer Completer, logger zerolog.Logger) *Generator {
	return &Generator{
		completer: completer,
		logger:    logger,
		seed:      func() int { return rand.IntN(1_000_000) },
	}
}

// Generate requests n independent completions and returns one haiku per
// completion. Either every completion succeeds or no content is returned.
func (g *Generator) Generate(ctx context.Context, req Request, n int) (models.Content, error) {
	if n <= 0 {
		n = 1
	}

	content := make(models.Content, n)
	eg, egCtx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		eg.Go(func() error {
			haiku, err := g.one(egCtx, req)
			if err != nil {
				return err
			}
			content[i] = haiku
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		metrics.Generations.WithLabelValues("failed").Inc()
		g.logger.Error().Err(err).Int("count", n).Msg("haiku generation failed")
		return nil, err
	}

	metrics.Generations.WithLabelValues("ok").Inc()
	return content, nil
}

func (g *Generator) one(ctx context.Context, req Request) (models.Haiku, error) {
	text, err := g.completer.Complete(ctx, BuildPrompt(g.seed(), req))
	if err != nil {
		return "", err
	}
	return Tail(text)
}

// BuildPrompt returns the instruction sent to the completion service. The seed
// varies the prompt so the service does not answer from its own cache.
func BuildPrompt(seed int, req Request) string {
	var b strings.Builder
	b.WriteString("Write a haiku")
	if adj := strings.TrimSpace(req.Adjective); adj != "" {
		fmt.Fprintf(&b, " in a %s style", adj)
	}
	if topic := strings.TrimSpace(req.Topic); topic != "" {
		fmt.Fprintf(&b, " about %s", topic)
	}
	fmt.Fprintf(&b, " (variation #%d).", seed)
	b.WriteString(" Answer with exactly three lines and nothing else.\n")
	return b.String()
}

// Tail takes the last three non-empty lines of text and joins them into a Haiku.
func Tail(text string) (models.Haiku, error) {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 3 {
		return "", fmt.Errorf("%w: got %d", ErrMalformedCompletion, len(lines))
	}
	return models.NewHaiku(lines[len(lines)-3:]), nil
}
