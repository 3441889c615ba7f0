// Package mock provides a simulated recognition engine. It needs no
// external tools or credentials and is the default when nothing else is
// installed.
package mock

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"flowtext/internal/domain"
	"flowtext/internal/engine"
	applang "flowtext/internal/language"
)

func init() {
	engine.Register(New())
}

// sentenceCount is how many fabricated entries one run produces.
const sentenceCount = 12

// Provider fabricates plausible timed sentences for a given audio file.
// Output is deterministic per audio path so repeated runs agree.
type Provider struct {
	stepDelay time.Duration
}

// New creates the mock provider with a small per-step delay so progress
// is observable.
func New() *Provider {
	return &Provider{stepDelay: 50 * time.Millisecond}
}

// NewInstant creates a mock provider without artificial delays, for tests.
func NewInstant() *Provider {
	return &Provider{}
}

// Name implements engine.Provider.
func (p *Provider) Name() string { return "mock" }

// Languages implements engine.Provider.
func (p *Provider) Languages() []domain.Language {
	languages, _ := applang.ForEngine("mock")
	return languages
}

// Transcribe fabricates subtitles, reporting progress per generated entry
// and honoring cancellation between steps.
func (p *Provider) Transcribe(ctx context.Context, req engine.Request, onProgress engine.ProgressFunc) ([]domain.Subtitle, error) {
	faker := gofakeit.New(seedFor(req.AudioPath))

	subtitles := make([]domain.Subtitle, 0, sentenceCount)
	cursor := 0.0
	for i := 0; i < sentenceCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.stepDelay > 0 {
			select {
			case <-time.After(p.stepDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		duration := 1.5 + faker.Float64Range(0.5, 3.0)
		subtitles = append(subtitles, domain.Subtitle{
			ID:        fmt.Sprintf("sub_%d", i+1),
			StartTime: cursor,
			EndTime:   cursor + duration,
			Text:      faker.Sentence(faker.Number(4, 10)),
		})
		cursor += duration + faker.Float64Range(0.1, 0.6)

		if onProgress != nil {
			onProgress(float64(i+1) / sentenceCount)
		}
	}

	return subtitles, nil
}

// seedFor derives a stable seed from the audio path.
func seedFor(audioPath string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(audioPath))
	return int64(h.Sum64() & 0x7fffffffffffffff)
}
