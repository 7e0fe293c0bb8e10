package flightconfig

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"sync"

	"github.com/danielorbach/go-component"
	"gocloud.dev/pubsub"
)

// A Registry collects the parameter containers of a component tree so that
// configuration lifecycle changes can be projected onto all of them at once.
//
// Registry is designed to be concurrently safe and can be accessed by
// multiple goroutines simultaneously; the registered containers themselves
// offer no concurrency control, so the registry's lock is also what
// serializes Apply against them.
type Registry struct {
	mu      sync.Mutex
	members []Configurable
}

// Register adds the given container to the registry. Registering the same
// container twice makes every change apply to it twice; don't.
func (r *Registry) Register(c Configurable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members = append(r.members, c)
}

// Len returns the number of registered containers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Apply projects the given change onto every registered container. Containers
// that reject the change do not prevent the others from being updated; the
// joined rejections are returned.
func (r *Registry) Apply(changed ConfigurationChanged) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for _, m := range r.members {
		if err := changed.Apply(m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// TrackConfigurations returns a component.Proc that tracks
// ConfigurationChanged notifications of a vehicle document and keeps the
// containers of the given Registry aligned with the document's flight
// configurations: cloned configurations receive a deep copy of their source's
// state, removed configurations fall back to the default value.
//
// The procedure handles one ConfigurationChanged message at a time; produce
// the messages with a key on the configuration identifier (see NewDispatcher)
// when running multiple trackers against a partitioned broker.
func TrackConfigurations(r *Registry, source *pubsub.Subscription) component.Proc {
	return func(l *component.L) {
		for l.Continue() {
			msg, err := source.Receive(l.GraceContext())
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				l.Errorf("receive: %v", err)
				continue
			}
			var changed ConfigurationChanged
			dec := gob.NewDecoder(bytes.NewReader(msg.Body))
			if err := dec.Decode(&changed); err != nil {
				l.Fatalf("Failed to unmarshal configuration change; stopping configuration tracking: %v\n", err)
			}

			if err := r.Apply(changed); err != nil {
				// A rejection here means a container disagrees with the
				// document about which configurations exist (e.g. a clone
				// from an error-marked source). There is nothing to retry;
				// log it and move on to the next change.
				l.Errorf("apply configuration change: %v", err)
			}
			msg.Ack()
		}
	}
}
