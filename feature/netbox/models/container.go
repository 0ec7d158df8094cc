package models

// Container carries one observation from a collector to the reconciler.
// A container that is never committed is abandoned and reconciles as a no-op.
type Container struct {
	record    *Record
	committed bool
}

// NewContainer wraps an observed record in an uncommitted container.
func NewContainer(r *Record) *Container {
	return &Container{record: r}
}

// Record returns the observed record.
func (c *Container) Record() *Record {
	return c.record
}

// Commit marks the observation as complete.
func (c *Container) Commit() {
	c.committed = c.record != nil
}

// IsCommitted reports whether the observation was finalized.
func (c *Container) IsCommitted() bool {
	return c.committed
}

// Observation is the wire form of one collected netbox observation.
type Observation struct {
	// NetboxID is the target netbox identifier.
	NetboxID int `json:"netbox_id"`
	Record
	// Committed is false for observations the collector abandoned. Absent means committed.
	Committed *bool `json:"committed,omitempty"`
}

// Container converts the observation into a container for the reconciler.
func (o Observation) Container() *Container {
	c := NewContainer(o.Record.Clone())
	if o.Committed == nil || *o.Committed {
		c.Commit()
	}
	return c
}
