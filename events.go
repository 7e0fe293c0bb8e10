package flightconfig

import (
	"encoding/gob"
	"fmt"
	"strings"
	"time"
)

// Register the configuration change types using gob.Register(). This is
// required to identify the type of change in the notified event after decoding
// it using gob.
func init() {
	gob.Register(ConfigurationCreated{})
	gob.Register(ConfigurationCloned{})
	gob.Register(ConfigurationRemoved{})
}

// Configurable is the interface implemented by containers whose
// per-configuration state follows the lifecycle of the owning document's
// flight configurations. *ParameterSet implements it.
//
// The methods mirror what the lifecycle demands of a container: duplicating
// one configuration's state into another, dropping a configuration's state,
// and refreshing derived state after upstream changes.
type Configurable interface {
	CloneConfiguration(src, dst ConfigID) (ConfigID, error)
	Reset(id ConfigID)
	Update()
}

// ConfigurationsChanged notifies that the set of flight configurations managed
// by an owning document has changed. The message contains the bulk changeset
// relative to the previously notified state.
type ConfigurationsChanged struct {
	Created []ConfigurationCreated
	Cloned  []ConfigurationCloned
	Removed []ConfigurationRemoved
	// The time, in UTC, the change was computed. The information in this
	// message is accurate up to this timestamp, not a moment afterwards.
	Timestamp time.Time
}

// IsEmpty returns true if the notification contains no changes.
func (c ConfigurationsChanged) IsEmpty() bool {
	return len(c.Created) == 0 && len(c.Cloned) == 0 && len(c.Removed) == 0
}

// A ConfigurationChange is a single change to the set of flight
// configurations, able to project itself onto any parameter container.
//
// Use the IsCreated, IsCloned, and IsRemoved methods of ConfigurationChanged
// to identify the concrete type of change.
type ConfigurationChange interface {
	// Apply projects the change onto the given container. It returns a
	// non-nil error when the container rejects the change.
	Apply(target Configurable) error
	// ConfigID returns the identifier of the configuration the change is
	// keyed by, for ordering and routing purposes.
	ConfigID() ConfigID
}

// ConfigurationCreated notifies that a new flight configuration has been
// added to the owning document.
type ConfigurationCreated struct {
	ID ConfigID
}

// Apply refreshes the container's derived state. No entry is installed: a
// configuration without an override already falls back to the default value.
func (c ConfigurationCreated) Apply(target Configurable) error {
	target.Update()
	return nil
}

func (c ConfigurationCreated) ConfigID() ConfigID { return c.ID }

// ConfigurationCloned notifies that an existing flight configuration has been
// duplicated under a new identifier.
type ConfigurationCloned struct {
	Source ConfigID // the configuration that was duplicated
	Target ConfigID // the identifier of the duplicate
}

// Apply installs a deep copy of the source configuration's effective value as
// the target's override.
func (c ConfigurationCloned) Apply(target Configurable) error {
	if _, err := target.CloneConfiguration(c.Source, c.Target); err != nil {
		return fmt.Errorf("clone %v into %v: %w", c.Source, c.Target, err)
	}
	return nil
}

func (c ConfigurationCloned) ConfigID() ConfigID { return c.Target }

// ConfigurationRemoved notifies that an existing flight configuration has
// been removed from the owning document.
type ConfigurationRemoved struct {
	ID ConfigID
}

// Apply drops the configuration's override, letting it fall back to the
// default value.
func (c ConfigurationRemoved) Apply(target Configurable) error {
	target.Reset(c.ID)
	return nil
}

func (c ConfigurationRemoved) ConfigID() ConfigID { return c.ID }

// ConfigurationChanged notifies about a single change to the set of flight
// configurations. It is produced by the dispatcher (see NewDispatcher) from a
// bulk ConfigurationsChanged message.
//
// IMPORTANT: Before encoding, the concrete change types (ConfigurationCreated,
// ConfigurationCloned, ConfigurationRemoved) must have been registered with
// gob.Register(); this package registers its own types during init.
type ConfigurationChanged struct {
	ConfigurationChange
	// The time, in UTC, the bulk change was computed. It corresponds to the
	// Timestamp field of the ConfigurationsChanged message this change is a
	// part of.
	Timestamp time.Time
}

// IsCreated returns true if a new configuration was created.
func (c ConfigurationChanged) IsCreated() bool {
	_, ok := c.ConfigurationChange.(ConfigurationCreated)
	return ok
}

// IsCloned returns true if an existing configuration was duplicated.
func (c ConfigurationChanged) IsCloned() bool {
	_, ok := c.ConfigurationChange.(ConfigurationCloned)
	return ok
}

// IsRemoved returns true if an existing configuration was removed.
func (c ConfigurationChanged) IsRemoved() bool {
	_, ok := c.ConfigurationChange.(ConfigurationRemoved)
	return ok
}

// fanOut splits the provided bulk notification into individual
// ConfigurationChanged messages, one for each change it carries.
func fanOut(changes ConfigurationsChanged) (individual []ConfigurationChanged) {
	for _, c := range changes.Created {
		individual = append(individual, ConfigurationChanged{
			ConfigurationChange: c,
			Timestamp:           changes.Timestamp,
		})
	}

	for _, c := range changes.Cloned {
		individual = append(individual, ConfigurationChanged{
			ConfigurationChange: c,
			Timestamp:           changes.Timestamp,
		})
	}

	for _, c := range changes.Removed {
		individual = append(individual, ConfigurationChanged{
			ConfigurationChange: c,
			Timestamp:           changes.Timestamp,
		})
	}

	return individual
}

// FormatChanges returns a human-readable representation of the changeset.
// The indent string is prepended to each line.
func FormatChanges(changes ConfigurationsChanged, indent string) string {
	var b strings.Builder
	for _, c := range changes.Created {
		fmt.Fprintf(&b, indent+"+ %v\n", c.ID)
	}
	for _, c := range changes.Cloned {
		fmt.Fprintf(&b, indent+"* %v -> %v\n", c.Source, c.Target)
	}
	for _, c := range changes.Removed {
		fmt.Fprintf(&b, indent+"- %v\n", c.ID)
	}
	return b.String()
}
