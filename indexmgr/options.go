package indexmgr

import "go.uber.org/zap"

// defaultBufferThreshold is the in-memory doc count above which
// auto-commit flushes a new segment (spec.md §4.9, §4.10).
const defaultBufferThreshold = 10000

// defaultWorkerPoolSize is the number of background workers writing
// segments and running merges (spec.md §5; the later of the source's
// two divergent index-manager versions per spec.md §9's Open Question).
const defaultWorkerPoolSize = 4

// defaultBackpressureDepth is the queued-job depth add_doc blocks above
// (spec.md §5, §9).
const defaultBackpressureDepth = 50

// Option configures a Manager at construction time, the same
// functional-options idiom the teacher configures its long-lived
// server-side structs with.
type Option func(*config)

type config struct {
	autoCommit      bool
	autoMerge       bool
	bufferThreshold int
	workerPoolSize  int
	backpressure    int64
	logger          *zap.Logger
}

func defaultConfig() config {
	return config{
		autoCommit:      true,
		autoMerge:       true,
		bufferThreshold: defaultBufferThreshold,
		workerPoolSize:  defaultWorkerPoolSize,
		backpressure:    defaultBackpressureDepth,
		logger:          zap.NewNop(),
	}
}

// WithAutoCommit toggles whether add_doc flushes the buffer once it
// exceeds the buffer threshold (spec.md §4.10). Default true.
func WithAutoCommit(enabled bool) Option {
	return func(c *config) { c.autoCommit = enabled }
}

// WithAutoMerge toggles whether a flush schedules background merges
// per the tiered policy (spec.md §4.10). Default true.
func WithAutoMerge(enabled bool) Option {
	return func(c *config) { c.autoMerge = enabled }
}

// WithBufferThreshold overrides the default 10,000-doc auto-commit
// threshold.
func WithBufferThreshold(n int) Option {
	return func(c *config) { c.bufferThreshold = n }
}

// WithWorkerPoolSize overrides the default 4-worker background pool.
func WithWorkerPoolSize(n int) Option {
	return func(c *config) { c.workerPoolSize = n }
}

// WithLogger injects a structured logger; a nil logger is never used,
// callers that want silence pass zap.NewNop() explicitly (the default).
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
