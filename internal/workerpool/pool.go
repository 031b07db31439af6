// Package workerpool is the fixed-size task pool used to read connections
// off the TCP listener without spawning one goroutine per client forever.
// Adapted from the teacher's internal WorkerPool prototype and given a
// real home so internal/net can import it instead of the dangling
// "internal/utils" package the original referenced.
package workerpool

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const defaultTaskChanSize = 100

// Function is the unit of work a pool executes against a task value.
type Function = func(t *tomb.Tomb, task any) error

// Pool maintains up to n concurrent workers pulling tasks off a shared
// channel until the supervising tomb starts dying.
type Pool struct {
	n     int
	tasks chan any
	work  Function
}

// New creates a pool sized for n concurrent workers.
func New(n int) *Pool {
	return &Pool{
		tasks: make(chan any, defaultTaskChanSize),
		n:     n,
	}
}

// AddTask enqueues a task for the next free worker.
func (p *Pool) AddTask(task any) {
	p.tasks <- task
}

// Setup blocks, keeping exactly n workers alive under t until t dies.
func (p *Pool) Setup(t *tomb.Tomb, work Function) {
	p.work = work
	log.Info().Int("workers", p.n).Msg("starting worker pool")

	active := 0
	for {
		select {
		case <-t.Dying():
			return
		default:
			if active < p.n {
				t.Go(func() error {
					err := p.worker(t)
					active--
					return err
				})
				active++
			}
		}
	}
}

func (p *Pool) worker(t *tomb.Tomb) error {
	select {
	case <-t.Dying():
		return nil
	case task := <-p.tasks:
		if err := p.work(t, task); err != nil {
			log.Error().Err(err).Msg("worker exiting")
			return err
		}
	}
	return nil
}
