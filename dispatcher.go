package flightconfig

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielorbach/go-component"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gocloud.dev/pubsub"
	"golang.org/x/sync/errgroup"
)

type dispatcher struct {
	document string
	source   *pubsub.Subscription
	sink     *pubsub.Topic
}

// NewDispatcher returns a [component.Procedure] that splits a vehicle
// document's bulk configuration change notifications (received from the given
// source) into individual per-configuration change notifications and publishes
// them to the specified sink.
//
// It consumes flightconfig.ConfigurationsChanged notifications and produces
// flightconfig.ConfigurationChanged notifications, which per-component
// trackers (see TrackConfigurations) consume.
//
// The dispatcher measures the duration of processing each bulk notification
// and labels each measurement record with the provided document name (e.g.
// "sampleRocket").
func NewDispatcher(document string, source *pubsub.Subscription, sink *pubsub.Topic) component.Procedure {
	return dispatcher{
		document: document,
		source:   source,
		sink:     sink,
	}
}

func (d dispatcher) Exec(l *component.L) {
	logger := component.Logger(l.Context())
	for l.Continue() {
		msg, err := d.source.Receive(l.GraceContext())
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return
			}

			// Based on the pubsub Receive function documentation, if Receive
			// returns an error, it is either a non-retryable error from the
			// underlying driver or indicates that the provided context is
			// Done. In case of a non-retryable error, we should either
			// recreate the Subscription or exit. Since we currently lack the
			// mechanism to recreate the target Subscription, we opt to
			// trigger a process shutdown.
			panic("cannot receive messages from the pubsub service")
		}

		err = d.handleMessage(l.GraceContext(), logger, msg)
		if err != nil {
			// Trackers shall never observe changes of a later bulk
			// notification before all changes of the previous one were
			// published. Therefore, if handleMessage fails for any reason, we
			// initiate a process shutdown; the service will then continuously
			// attempt to process the same message until it succeeds.
			logger.Error("Couldn't handle ConfigurationsChanged message",
				slog.Any("error", err),
			)
			panic("cannot proceed to the next ConfigurationsChanged message due to failure")
		}

		// Acknowledge the message only if the handling process is fully
		// successful, as the service maintains an at-least-once delivery
		// constraint.
		msg.Ack()
	}
}

// handleMessage handles a ConfigurationsChanged message by splitting it into
// ConfigurationChanged messages and publishing each one. It returns an error
// if it fails to publish even a single ConfigurationChanged message.
func (d dispatcher) handleMessage(ctx context.Context, logger *slog.Logger, msg *pubsub.Message) (err error) {
	ctx, span := tracer.Start(ctx, "dispatcher.handleMessage", trace.WithAttributes(
		attribute.String("msg.id", msg.LoggableID),
	))
	defer span.End()

	defer func(start time.Time) {
		success := err == nil
		elapsed := time.Since(start)
		measureDispatch(ctx, d.document, success, elapsed)
	}(time.Now())

	logger.Debug("New ConfigurationsChanged message received, starting message handling...")
	var changed ConfigurationsChanged
	if err := gob.NewDecoder(bytes.NewReader(msg.Body)).Decode(&changed); err != nil {
		err := fmt.Errorf("decode gob: %w", err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if changed.IsEmpty() {
		logger.Info("There are no changes in the ConfigurationsChanged message, message skipped",
			slog.Time("computed-at", changed.Timestamp))
		return nil
	}

	logger = logger.With(slog.Time("computed-at", changed.Timestamp))
	logger.Debug("Splitting bulk notification into per-configuration changes...")
	individual := fanOut(changed)

	g, ctx := errgroup.WithContext(ctx)
	for _, c := range individual {
		g.Go(func() error {
			return d.notifyChange(ctx, logger, c)
		})
	}

	// Ensures that any goroutines started by the error group are allowed to
	// finish and that their errors are handled before the function can
	// return, thus maintaining robust error tracking.
	if err := g.Wait(); err != nil {
		return fmt.Errorf("send configuration changes: %w", err)
	}
	logger.Info("ConfigurationsChanged message handled successfully")

	return nil
}

func (d dispatcher) notifyChange(ctx context.Context, logger *slog.Logger, c ConfigurationChanged) error {
	ctx, span := tracer.Start(ctx, "dispatcher.notifyChange", trace.WithAttributes(
		attribute.Stringer("config.id", c.ConfigID()),
	))
	defer span.End()

	logger = logger.With(
		slog.Any("config-id", c.ConfigID()),
	)
	logger.Debug("Encoding ConfigurationChanged message using gob...")
	var b bytes.Buffer
	enc := gob.NewEncoder(&b)
	if err := enc.Encode(c); err != nil {
		err := fmt.Errorf("encode gob: %w", err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	logger.Debug("Sending ConfigurationChanged message...")
	// To ensure ordered message delivery with the Kafka messaging broker,
	// messages can be produced with a key. Kafka guarantees that messages
	// with the same key are written to the same topic partition, and
	// consumers read messages in order from each partition.
	//
	// The configuration identifier is included as metadata on the message to
	// enable that key-based partitioning: a consumer of a specific partition
	// consumes all changes of the same configuration in the correct order.
	msg := &pubsub.Message{Body: b.Bytes(), Metadata: map[string]string{"configID": c.ConfigID().String()}}
	if err := d.sink.Send(ctx, msg); err != nil {
		err := fmt.Errorf("send: %w", err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	logger.Debug("ConfigurationChanged message sent successfully")

	return nil
}
