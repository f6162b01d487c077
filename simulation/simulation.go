// Package simulation assembles the services that a run uses: the caches, the
// data recorder and the monitor.
package simulation

import (
	"sync"

	"github.com/sarchlab/rripsim/datarecording"
	"github.com/sarchlab/rripsim/mem/cache/llc"
	"github.com/sarchlab/rripsim/mem/cache/rrip"
	"github.com/sarchlab/rripsim/monitoring"
)

// A Simulation provides the service requires to define a simulation.
type Simulation struct {
	id string

	dataRecorder datarecording.DataRecorder
	monitor      *monitoring.Monitor
	monitorURL   string
	pselInterval uint64
	locker       sync.Locker

	caches         []*llc.Cache
	cacheNameIndex map[string]int
}

type noopLocker struct{}

func (noopLocker) Lock() {}
func (noopLocker) Unlock() {}

// ID returns the unique ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// GetDataRecorder returns the data recorder used in the simulation. It is
// nil when recording is disabled.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor used in the simulation. It is nil when
// monitoring is disabled.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// MonitorURL returns the address of the monitoring server, if any.
func (s *Simulation) MonitorURL() string {
	return s.monitorURL
}

// Lock blocks the monitor from reading cache state. Runners hold it while
// they feed accesses.
func (s *Simulation) Lock() {
	s.locker.Lock()
}

// Unlock releases the lock acquired by Lock.
func (s *Simulation) Unlock() {
	s.locker.Unlock()
}

// RegisterCache registers a cache with the simulation. RRIP policies get a
// PSEL tracer when recording is on.
func (s *Simulation) RegisterCache(c *llc.Cache) {
	name := c.Name()
	if _, found := s.cacheNameIndex[name]; found {
		panic("cache " + name + " already registered")
	}

	s.caches = append(s.caches, c)
	s.cacheNameIndex[name] = len(s.caches) - 1

	if s.monitor != nil {
		s.monitor.RegisterCache(c)
	}

	s.attachPolicyTracer(c)
}

func (s *Simulation) attachPolicyTracer(c *llc.Cache) {
	if s.dataRecorder == nil || s.pselInterval == 0 {
		return
	}

	engine, ok := c.Policy().(*rrip.Engine)
	if !ok || engine.Config().Mode != rrip.ModeDRRIP {
		return
	}

	engine.AcceptHook(datarecording.NewPolicyTracer(
		s.dataRecorder, c.Name(), engine, s.pselInterval))
}

// GetCacheByName returns the cache with the given name.
func (s *Simulation) GetCacheByName(name string) *llc.Cache {
	idx, found := s.cacheNameIndex[name]
	if !found {
		return nil
	}

	return s.caches[idx]
}

// Caches returns all registered caches in registration order.
func (s *Simulation) Caches() []*llc.Cache {
	return append([]*llc.Cache(nil), s.caches...)
}

// RecordRunSummary stores the result of running a trace through a cache.
func (s *Simulation) RecordRunSummary(trace string, c *llc.Cache) {
	if s.dataRecorder == nil {
		return
	}

	stats := c.Stats()
	summary := datarecording.RunSummary{
		Simulation: s.id,
		Cache:      c.Name(),
		Trace:      trace,
		Policy:     c.Policy().Name(),
		Sets:       c.NumSets(),
		Ways:       c.NumWays(),
		Accesses:   stats.Total.Access,
		Hits:       stats.Total.Hit,
		Misses:     stats.Total.Miss,
		MissRate:   stats.MissRate(),
		FinalPSEL:  -1,
	}

	if engine, ok := c.Policy().(*rrip.Engine); ok &&
		engine.Config().Mode == rrip.ModeDRRIP {
		summary.FinalPSEL = engine.PSEL()
	}

	datarecording.RecordRunSummary(s.dataRecorder, summary)
}

// Terminate terminates the simulation.
func (s *Simulation) Terminate() {
	if s.dataRecorder != nil {
		s.dataRecorder.Close()
	}
}
