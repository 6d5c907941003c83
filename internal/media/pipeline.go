// Package media renders haiku artwork and publishes it to content-addressed storage.
package media

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/haikunft/internal/metrics"
	"github.com/eldtechnologies/haikunft/internal/models"
)

// Pipeline composes the image for a haiku and uploads it.
type Pipeline struct {
	composer *Composer
	uploader *Uploader
	logger   zerolog.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(composer *Composer, uploader *Uploader, logger zerolog.Logger) *Pipeline {
	return &Pipeline{composer: composer, uploader: uploader, logger: logger}
}

// Publish renders title and haiku onto the background and returns the public URL.
func (p *Pipeline) Publish(ctx context.Context, title string, haiku models.Haiku) (string, error) {
	img, err := p.composer.Compose(title, haiku)
	if err != nil {
		return "", err
	}

	url, err := p.uploader.Upload(ctx, img, "image/png")
	if err != nil {
		metrics.MediaUploads.WithLabelValues("failed").Inc()
		p.logger.Error().Err(err).Str("title", title).Msg("media upload failed")
		return "", err
	}

	metrics.MediaUploads.WithLabelValues("ok").Inc()
	p.logger.Info().Str("title", title).Str("media", url).Msg("media published")
	return url, nil
}
