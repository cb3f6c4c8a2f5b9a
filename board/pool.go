package board

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// persistJob carries one mutation's persistence work plus everything
// needed to compensate the session if the backend rejects it.
type persistJob struct {
	sess    *Session
	run     func(context.Context) error
	diff    Diff
	failure string
}

// PoolConfig sizes the persistence worker pool.
type PoolConfig struct {
	Workers int
	Buffer  int
	Timeout time.Duration
	Handoff time.Duration
}

func (c PoolConfig) withDefaults() PoolConfig {
	if c.Workers <= 0 {
		c.Workers = 8
	}
	if c.Buffer <= 0 {
		c.Buffer = 1024
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Handoff < 0 {
		c.Handoff = 0
	}
	return c
}

// persistPool runs persistence calls off the session lock so the caller is
// never blocked on the network. A job that cannot be handed off within the
// handoff timeout is processed inline by the caller.
type persistPool struct {
	cfg    PoolConfig
	jobs   chan persistJob
	done   chan struct{}
	logger *log.Logger
}

func newPersistPool(cfg PoolConfig, logger *log.Logger) *persistPool {
	cfg = cfg.withDefaults()
	p := &persistPool{
		cfg:    cfg,
		jobs:   make(chan persistJob, cfg.Buffer),
		done:   make(chan struct{}),
		logger: logger,
	}
	for i := 0; i < cfg.Workers; i++ {
		go p.worker(i)
	}
	logger.Infof("persist pool started, workers: %d, buffer: %d, timeout: %v, handoff: %v", cfg.Workers, cfg.Buffer, cfg.Timeout, cfg.Handoff)
	return p
}

func (p *persistPool) worker(id int) {
	for {
		select {
		case j, ok := <-p.jobs:
			if !ok {
				return
			}
			p.process(j, id)
		case <-p.done:
			return
		}
	}
}

// dispatch hands the job to a worker, falling back to inline processing
// when the buffer is saturated.
func (p *persistPool) dispatch(j persistJob) {
	select {
	case p.jobs <- j:
		return
	default:
	}

	if p.cfg.Handoff > 0 {
		timer := time.NewTimer(p.cfg.Handoff)
		defer timer.Stop()
		select {
		case p.jobs <- j:
			return
		case <-timer.C:
		}
	}

	p.logger.Warn("persist buffer saturated; processing inline")
	p.process(j, -1)
}

// process runs the persistence call and, on failure, applies the targeted
// compensating update and raises a user notification. Handlers never see
// persistence errors; rollback plus notification is the whole contract.
func (p *persistPool) process(j persistJob, workerID int) {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Timeout)
	err := j.run(ctx)
	cancel()
	if err == nil {
		return
	}

	p.logger.WithError(err).Errorf("persist failed, user: %s, worker: %d", j.sess.UserID, workerID)

	j.sess.mu.Lock()
	j.sess.hist.Set(j.diff.revert)
	j.sess.notify("error", j.failure)
	j.sess.mu.Unlock()
}

func (p *persistPool) close() {
	close(p.done)
}
