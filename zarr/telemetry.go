package zarr

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// telemetry bundles the ambient observability handles an Array/Group
// carries: a structured logger and an otel tracer/meter pair. newTelemetry
// fills every field (zap.NewNop() for a nil logger, the otel global
// providers for tracer and meter) so a telemetry it returns never needs a
// nil check at the call site; the zero value of telemetry is not usable.
type telemetry struct {
	log    *zap.Logger
	tracer trace.Tracer
	meter  metric.Meter

	chunkReads  metric.Int64Counter
	chunkWrites metric.Int64Counter
}

func newTelemetry(log *zap.Logger) telemetry {
	if log == nil {
		log = zap.NewNop()
	}
	tracer := otel.Tracer("github.com/gozarr/gozarr")
	meter := otel.Meter("github.com/gozarr/gozarr")

	chunkReads, _ := meter.Int64Counter("gozarr.chunk_reads",
		metric.WithDescription("number of chunk keys fetched from the store"))
	chunkWrites, _ := meter.Int64Counter("gozarr.chunk_writes",
		metric.WithDescription("number of chunk keys written to the store"))

	return telemetry{
		log:         log,
		tracer:      tracer,
		meter:       meter,
		chunkReads:  chunkReads,
		chunkWrites: chunkWrites,
	}
}
