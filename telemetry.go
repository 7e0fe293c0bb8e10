package flightconfig

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("github.com/go-flightconfig/go-flightconfig")
var meter = otel.Meter("github.com/go-flightconfig/go-flightconfig")

// ---- dispatcher.go ----

const (
	// documentName is the attribute key used to associate each record with
	// the vehicle document whose configurations changed. This enables both
	// collective examination of metrics across all documents and individual
	// analysis per document.
	documentName = "flightdocument"
)

var (
	// dispatchDuration measures the duration of a single ConfigurationsChanged
	// dispatch, including the duration it took to produce (to the pubsub
	// service) the entire set of ConfigurationChanged messages.
	//
	// Each record is associated with the documentName.
	dispatchDuration metric.Float64Histogram
	// dispatchFailures measures the number of failed dispatch processes.
	//
	// Each record is associated with the documentName.
	dispatchFailures metric.Int64Counter
)

func init() {
	var err error
	dispatchDuration, err = meter.Float64Histogram(
		"configurationsChanged.dispatch.duration",
		metric.WithDescription("The duration of a single ConfigurationsChanged dispatch, including the duration it took to produce (to the pubsub service) the entire set of ConfigurationChanged messages."),
		metric.WithUnit("ms"),
	)
	if err != nil {
		panic("flightconfig: failed to init 'configurationsChanged.dispatch.duration' instrument")
	}

	dispatchFailures, err = meter.Int64Counter(
		"configurationsChanged.dispatch.failures",
		metric.WithDescription("The number of dispatch processes that have failed."),
	)
	if err != nil {
		panic("flightconfig: failed to init 'configurationsChanged.dispatch.failures' instrument")
	}
}

// measureDispatch measures the dispatch process using the measurements
// dispatchDuration and dispatchFailures. If the dispatch succeeded, we record
// its duration. If it failed, we increment the failure counter.
//
// Each record is labeled with the relevant vehicle document's name, allowing
// collective analysis of all dispatch processes as well as detailed
// individual analysis per document.
//
// According to [metric] documentation, [metric.WithAttributeSet] should be
// used instead of [metric.WithAttributes] for performance optimization.
func measureDispatch(ctx context.Context, document string, succeeded bool, d time.Duration) {
	attrs := attribute.NewSet(attribute.String(documentName, document))
	if succeeded {
		// We use floating-point division here for higher precision (instead
		// of the Millisecond method).
		duration := float64(d) / float64(time.Millisecond)
		dispatchDuration.Record(ctx, duration, metric.WithAttributeSet(attrs))
	} else {
		dispatchFailures.Add(ctx, 1, metric.WithAttributeSet(attrs))
	}
}
