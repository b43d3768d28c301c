package observability

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/taskhub/internal/describe"
)

type observedGenerator struct {
	next describe.Generator
	prom *Prom
}

// ObserveGenerator wraps g so every call is counted and timed. Calls rejected
// because generation is switched off are counted but not timed.
func (p *Prom) ObserveGenerator(g describe.Generator) describe.Generator {
	return &observedGenerator{next: g, prom: p}
}

func (o *observedGenerator) Generate(ctx context.Context, summary string) (string, error) {
	start := time.Now()
	text, err := o.next.Generate(ctx, summary)

	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, describe.ErrNotConfigured):
		o.prom.LLMRequests.WithLabelValues("disabled").Inc()
		return text, err
	case errors.Is(err, describe.ErrCircuitOpen):
		result = "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		result = "timeout"
	default:
		result = "error"
	}

	o.prom.LLMRequests.WithLabelValues(result).Inc()
	o.prom.LLMDuration.Observe(time.Since(start).Seconds())
	return text, err
}
