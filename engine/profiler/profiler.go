package profiler

import (
	"log"
	"runtime"
	"time"
)

// Profiler tracks frame rate and, optionally, memory statistics for performance monitoring.
// Outputs stats to the log at a configurable interval and keeps cumulative totals.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	memoryStats bool
	now         func() time.Time
	logger      *log.Logger

	startTime   time.Time
	totalFrames int
	lastFPS     float64
}

// Summary holds the cumulative frame statistics of a Profiler.
type Summary struct {
	// Frames is the number of frames ticked since creation or the last Reset.
	Frames int

	// Elapsed is the time since creation or the last Reset.
	Elapsed time.Duration

	// AverageFPS is Frames divided by Elapsed.
	AverageFPS float64

	// LastFPS is the frame count of the last completed interval, scaled to one second.
	LastFPS float64
}

// NewProfiler creates a new Profiler.
// Update interval defaults to 1 second; memory statistics are off by default.
//
// Parameters:
//   - options: variadic list of ProfilerBuilderOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
		logger:         log.Default(),
	}
	for _, opt := range options {
		opt(p)
	}
	p.Reset()
	return p
}

// Reset clears the interval counter and the cumulative totals and restarts both clocks.
func (p *Profiler) Reset() {
	t := p.now()
	p.frameCount = 0
	p.totalFrames = 0
	p.lastFPS = 0
	p.lastTime = t
	p.startTime = t
}

// Tick should be called once per frame to track frame timing.
// Logs "[Profiler] N fps" when the update interval has elapsed, where N is the number of
// frames since the previous report. With memory statistics enabled the line also carries
// heap usage, allocation rate, GC count/pause times and total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	p.totalFrames++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}

	p.lastFPS = float64(p.frameCount) / elapsed.Seconds()

	if !p.memoryStats {
		p.logger.Printf("[Profiler] %d fps", p.frameCount)
	} else {
		runtime.ReadMemStats(&p.memStats)
		// Alloc: Bytes of allocated heap objects (live memory)
		// TotalAlloc: Cumulative bytes allocated for heap objects (tracks churn)
		// Sys: Total bytes of memory obtained from the OS (actual process footprint)
		allocMB := float64(p.memStats.Alloc) / 1024 / 1024
		sysMB := float64(p.memStats.Sys) / 1024 / 1024

		allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
		allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

		gcCount := p.memStats.NumGC
		var lastPauseUs, maxPauseUs uint64
		if gcCount > 0 {
			// PauseNs is a circular buffer of last 256 GC pauses
			lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

			startIdx := p.lastGCCount
			if gcCount-startIdx > 256 {
				startIdx = gcCount - 256
			}
			for i := startIdx; i < gcCount; i++ {
				pause := p.memStats.PauseNs[i%256] / 1000
				if pause > maxPauseUs {
					maxPauseUs = pause
				}
			}
		}

		p.logger.Printf("[Profiler] %d fps | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
			p.frameCount, allocMB, allocRateMB, gcCount, lastPauseUs, maxPauseUs, sysMB)

		p.lastGCCount = gcCount
		p.lastTotalAlloc = p.memStats.TotalAlloc
	}

	p.frameCount = 0
	p.lastTime = currentTime
	return true
}

// Summary returns the cumulative statistics since creation or the last Reset.
//
// Returns:
//   - Summary: the cumulative statistics
func (p *Profiler) Summary() Summary {
	elapsed := p.now().Sub(p.startTime)
	s := Summary{
		Frames:  p.totalFrames,
		Elapsed: elapsed,
		LastFPS: p.lastFPS,
	}
	if elapsed > 0 {
		s.AverageFPS = float64(p.totalFrames) / elapsed.Seconds()
	}
	return s
}
