package blob

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"
)

var (
	defaultNumWorkers   uint = 2
	defaultJobQueueSize uint = 64
)

// Result is delivered on a job's Done channel once it has been processed.
type Result struct {
	// Requested is the name the asset was submitted under.
	Requested string

	// Name is the name the asset was stored under, empty on failure.
	Name string

	Err error
}

// Job is one asset registration.
type Job struct {
	Asset   *Asset
	Options []RegisterOption

	// Done, when set, receives exactly one Result. It should be buffered;
	// the worker blocks until the result is received.
	Done chan<- Result
}

// RegistrarConfig is the configuration for the registration worker pool.
type RegistrarConfig struct {
	// Driver is the blob store assets are written to.
	Driver Driver

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 64).
	QueueSize uint

	// OnStored, when set, is called after every successful registration.
	OnStored func(Info)

	Logger *zap.Logger
}

// Registrar writes assets to the blob store off the caller's path.
// Name allocation is serialized so concurrent registrations of the same name
// never collide.
type Registrar struct {
	config *RegistrarConfig
	queue  chan Job
	wg     sync.WaitGroup
	nameMu sync.Mutex
	logger *zap.Logger

	// mu guards closed against concurrent Enqueue and Close.
	mu     sync.RWMutex
	closed bool

	pendingMu sync.Mutex
	pending   int
	idle      chan struct{}
}

// NewRegistrar creates a Registrar and starts its worker goroutines.
func NewRegistrar(c *RegistrarConfig) (*Registrar, error) {
	if c.Driver == nil {
		return nil, fmt.Errorf("registrar requires a blob driver")
	}
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}
	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	r := &Registrar{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	r.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go r.worker(i)
	}

	return r, nil
}

// Enqueue submits a registration without waiting for it. It returns false
// when the queue is full or the registrar is closed; the job is then dropped
// and, if it has a Done channel, a failed Result is delivered.
func (r *Registrar) Enqueue(job Job) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.reject(job, fmt.Errorf("registrar closed"))
		return false
	}

	r.begin()
	select {
	case r.queue <- job:
		r.logger.Debug("asset registration queued", zap.String("asset", job.Asset.Name))
		return true
	default:
		r.finish()
		r.logger.Error("asset registration not queued, queue full, job dropped",
			zap.String("asset", job.Asset.Name),
		)
		r.reject(job, fmt.Errorf("registration queue full"))
		return false
	}
}

// Register enqueues a and waits for the result.
func (r *Registrar) Register(ctx context.Context, a *Asset, opts ...RegisterOption) (string, error) {
	done := make(chan Result, 1)
	if !r.Enqueue(Job{Asset: a, Options: opts, Done: done}) {
		res := <-done
		return "", res.Err
	}
	select {
	case res := <-done:
		return res.Name, res.Err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Flush waits until every job enqueued so far has been processed.
func (r *Registrar) Flush(ctx context.Context) error {
	r.pendingMu.Lock()
	idle := r.idle
	busy := r.pending > 0
	r.pendingMu.Unlock()

	if !busy {
		return nil
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs and waits for queued ones to drain.
func (r *Registrar) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Registrar) begin() {
	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()
	if r.pending == 0 {
		r.idle = make(chan struct{})
	}
	r.pending++
}

func (r *Registrar) finish() {
	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()
	r.pending--
	if r.pending == 0 {
		close(r.idle)
	}
}

func (r *Registrar) reject(job Job, err error) {
	if job.Done != nil {
		job.Done <- Result{Requested: job.Asset.Name, Err: err}
	}
}

// worker continuously pulls jobs off the queue.
func (r *Registrar) worker(id uint) {
	defer r.wg.Done()
	r.logger.Debug("registrar worker started", zap.Uint("worker_id", id))

	for job := range r.queue {
		r.processJob(job)
		r.finish()
	}

	r.logger.Debug("registrar worker stopped", zap.Uint("worker_id", id))
}

func (r *Registrar) processJob(job Job) {
	ctx := context.Background()

	r.nameMu.Lock()
	name, err := Register(ctx, r.config.Driver, job.Asset, job.Options...)
	r.nameMu.Unlock()

	res := Result{Requested: job.Asset.Name, Name: name, Err: err}
	if err != nil {
		r.logger.Error("asset registration failed",
			zap.String("asset", job.Asset.Name),
			zap.Error(err),
		)
	} else {
		r.logger.Info("asset stored",
			zap.String("asset", name),
			zap.Int("bytes", len(job.Asset.Data)),
		)
		if r.config.OnStored != nil {
			info := job.Asset.Info
			info.Name = name
			info.Size = int64(len(job.Asset.Data))
			r.config.OnStored(info)
		}
	}

	if job.Done != nil {
		job.Done <- res
	}
}
