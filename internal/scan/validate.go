package scan

import "context"

const validateProbeSymbol = "AAPL"

// Validate probes the scanner's dependencies and reports which are
// healthy. It never fails outright; each probe stands alone.
func (o *Orchestrator) Validate(ctx context.Context) map[string]bool {
	checks := map[string]bool{
		"redis_connection": false,
		"data_feed":        false,
		"btc_benchmark":    false,
		"symbol_universe":  false,
	}

	if err := o.universe.Ping(ctx); err != nil {
		o.logger.WithError(err).Warn("Universe store unreachable")
	} else {
		checks["redis_connection"] = true
	}

	md, err := o.feed.FetchSnapshot(ctx, validateProbeSymbol)
	if err != nil {
		o.logger.WithError(err).Warn("Data feed probe failed")
	} else {
		checks["data_feed"] = md != nil
	}

	// The benchmark degrades to its default on failure, so this probe
	// only catches a hurdle that computed to zero or went negative.
	checks["btc_benchmark"] = o.benchmark.ExpectedReturn(ctx, defaultTimeframe) > 0

	symbols, err := o.universe.ActiveSymbols(ctx)
	if err != nil {
		o.logger.WithError(err).Warn("Universe probe failed")
	} else {
		checks["symbol_universe"] = len(symbols) > 0
	}

	return checks
}
