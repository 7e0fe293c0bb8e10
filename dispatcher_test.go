package flightconfig

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/danielorbach/go-component"
	"gocloud.dev/pubsub"
	"gocloud.dev/pubsub/mempubsub"
)

func TestDispatcherHandleMessage(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sink := mempubsub.NewTopic()
	defer sink.Shutdown(ctx)
	delivered := mempubsub.NewSubscription(sink, time.Minute)
	defer delivered.Shutdown(ctx)

	d := dispatcher{document: "sampleRocket", sink: sink}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	changed := ConfigurationsChanged{
		Cloned:    []ConfigurationCloned{{Source: ConfigID{0x01}, Target: ConfigID{0x02}}},
		Removed:   []ConfigurationRemoved{{ID: ConfigID{0x03}}},
		Timestamp: time.Now().UTC(),
	}
	var body bytes.Buffer
	if err := gob.NewEncoder(&body).Encode(changed); err != nil {
		t.Fatal("Encode(gob)", err)
	}

	if err := d.handleMessage(ctx, logger, &pubsub.Message{Body: body.Bytes()}); err != nil {
		t.Fatal("handleMessage:", err)
	}

	// The bulk notification fans out into one message per change, keyed by
	// the configuration identifier.
	got := make(map[ConfigID]ConfigurationChanged)
	for i := 0; i < 2; i++ {
		msg, err := delivered.Receive(ctx)
		if err != nil {
			t.Fatal("Receive:", err)
		}
		msg.Ack()

		var c ConfigurationChanged
		if err := gob.NewDecoder(bytes.NewReader(msg.Body)).Decode(&c); err != nil {
			t.Fatal("Decode(gob)", err)
		}
		if want := c.ConfigID().String(); msg.Metadata["configID"] != want {
			t.Errorf("message metadata configID = %q, expected %q", msg.Metadata["configID"], want)
		}
		got[c.ConfigID()] = c
	}

	if c, ok := got[ConfigID{0x02}]; !ok || !c.IsCloned() {
		t.Errorf("missing or misclassified clone message: %+v", c)
	}
	if c, ok := got[ConfigID{0x03}]; !ok || !c.IsRemoved() {
		t.Errorf("missing or misclassified removal message: %+v", c)
	}
}

func TestDispatcherSkipsEmptyChangeset(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sink := mempubsub.NewTopic()
	defer sink.Shutdown(ctx)
	delivered := mempubsub.NewSubscription(sink, time.Minute)
	defer delivered.Shutdown(ctx)

	d := dispatcher{document: "sampleRocket", sink: sink}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var body bytes.Buffer
	if err := gob.NewEncoder(&body).Encode(ConfigurationsChanged{}); err != nil {
		t.Fatal("Encode(gob)", err)
	}
	if err := d.handleMessage(ctx, logger, &pubsub.Message{Body: body.Bytes()}); err != nil {
		t.Fatal("handleMessage:", err)
	}

	// Nothing was published: receiving must time out.
	short, cancelShort := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancelShort()
	if msg, err := delivered.Receive(short); err == nil {
		msg.Ack()
		t.Error("received a message for an empty changeset")
	}
}

func TestDispatcherRejectsGarbage(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sink := mempubsub.NewTopic()
	defer sink.Shutdown(ctx)

	d := dispatcher{document: "sampleRocket", sink: sink}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	err := d.handleMessage(ctx, logger, &pubsub.Message{Body: []byte("not gob")})
	if err == nil {
		t.Error("handleMessage(garbage) succeeded, expected a decode error")
	}
}

// ExampleNewDispatcher shows an example [component.Descriptor] for a vehicle
// document's configuration-change dispatcher with an example bootstrap
// function.
func ExampleNewDispatcher() {
	configurationsChangedAspect := "vehicle-doc.configurations-changed"
	configurationChangedAspect := "vehicle-doc.configuration-changed"

	d := &component.Descriptor{
		Name: "vehicledoc-dispatcher",
		Doc:  "....",
		Bootstrap: func(l *component.L, target component.Linker, options any) error {
			logger := component.Logger(l.Context())

			logger.Debug("Opening interest subscription...", slog.String("topic-name", configurationsChangedAspect))
			bulkChanges, err := target.LinkInterest(l.GraceContext(), configurationsChangedAspect)
			if err != nil {
				return fmt.Errorf("open interest %q: %w", configurationsChangedAspect, err)
			}
			l.CleanupBackground(bulkChanges.Shutdown)
			logger.Info("Interest subscription opened successfully")

			logger.Debug("Opening aspect topic...", slog.String("topic-name", configurationChangedAspect))
			individualChanges, err := target.LinkAspect(l.GraceContext(), configurationChangedAspect)
			if err != nil {
				return fmt.Errorf("open aspect %q: %w", configurationChangedAspect, err)
			}
			l.CleanupContext(individualChanges.Shutdown)
			logger.Info("Aspect topic opened successfully")

			l.Fork("dispatcher", NewDispatcher("sampleRocket", bulkChanges, individualChanges))

			return nil
		},
		Aspects:   []string{configurationChangedAspect},
		Interests: []string{configurationsChangedAspect},
	}

	fmt.Print(d)
}
