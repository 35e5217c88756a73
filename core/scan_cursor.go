package core

// ScanCursor is a resumable position into a population snapshot. A sweep
// over one snapshot may span many ticks; the generation counter changes
// every time a new snapshot is installed so callers can tell sweeps apart.
type ScanCursor struct {
	snapshot   []TrackedEntity
	index      int
	generation uint64
	origin     Vec3
	valid      bool
}

// Reset installs a new snapshot taken around origin and starts a new
// generation.
func (c *ScanCursor) Reset(snapshot []TrackedEntity, origin Vec3) {
	c.snapshot = snapshot
	c.index = 0
	c.origin = origin
	c.valid = true
	c.generation++
}

// Next pops the next entity of the current snapshot.
func (c *ScanCursor) Next() (TrackedEntity, bool) {
	if c.Exhausted() {
		return TrackedEntity{}, false
	}
	e := c.snapshot[c.index]
	c.index++
	return e, true
}

// Exhausted reports whether there is nothing left to pop, including when
// no snapshot has been installed.
func (c *ScanCursor) Exhausted() bool {
	return !c.valid || c.index >= len(c.snapshot)
}

// Remaining returns the number of entities not yet popped.
func (c *ScanCursor) Remaining() int {
	if c.Exhausted() {
		return 0
	}
	return len(c.snapshot) - c.index
}

// Invalidate discards the current snapshot. The generation counter is kept
// so the next Reset still produces a fresh generation.
func (c *ScanCursor) Invalidate() {
	c.snapshot = nil
	c.index = 0
	c.valid = false
}

// Generation returns the number of snapshots installed so far.
func (c *ScanCursor) Generation() uint64 { return c.generation }

// Origin returns where the current snapshot was taken.
func (c *ScanCursor) Origin() Vec3 { return c.origin }
