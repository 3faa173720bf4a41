package core

// PoolStats represents runtime observability state for the shared pool.
type PoolStats struct {
	ID      string
	Workers int
	Queued  int
	Active  int
	Delayed int
	Running bool
}

// PoolStats samples the pool gauges plus the timer backlog.
func (d *Dispatcher) PoolStats() PoolStats {
	return PoolStats{
		ID:      d.pool.ID(),
		Workers: d.pool.WorkerCount(),
		Queued:  d.pool.QueuedTaskCount(),
		Active:  d.pool.ActiveTaskCount(),
		Delayed: d.DelayedTaskCount(),
		Running: d.pool.IsRunning(),
	}
}
