package marketdata

import (
	"context"
	"time"

	"github.com/wonny/factorlab/internal/contracts"
)

// PriceReturnProvider implements contracts.ReturnProvider from close
// prices: forward return = close(to)/close(from) - 1. Instruments
// missing a usable price at either end are absent from the result.
type PriceReturnProvider struct {
	prices contracts.PriceRepository
}

// NewPriceReturnProvider creates a new price-based return provider
func NewPriceReturnProvider(prices contracts.PriceRepository) *PriceReturnProvider {
	return &PriceReturnProvider{prices: prices}
}

// ForwardReturns returns each instrument's simple return over [from, to]
func (p *PriceReturnProvider) ForwardReturns(ctx context.Context, instruments []string, from, to time.Time) (map[string]float64, error) {
	startCloses, err := p.prices.ClosesAsOf(ctx, instruments, from)
	if err != nil {
		return nil, err
	}

	endCloses, err := p.prices.ClosesAsOf(ctx, instruments, to)
	if err != nil {
		return nil, err
	}

	returns := make(map[string]float64, len(instruments))
	for _, id := range instruments {
		start, ok := startCloses[id]
		if !ok || start == 0 {
			continue
		}
		end, ok := endCloses[id]
		if !ok {
			continue
		}
		returns[id] = end/start - 1
	}

	return returns, nil
}
