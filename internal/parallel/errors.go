// Package parallel holds the small concurrency helpers shared by the
// multiplication tiers and the splitter.
package parallel

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrorCollector keeps the first non-nil error reported by a group of
// goroutines. The zero value is ready to use.
//
//	var ec parallel.ErrorCollector
//	var wg sync.WaitGroup
//	wg.Add(2)
//	go func() { defer wg.Done(); ec.SetError(mulLeft()) }()
//	go func() { defer wg.Done(); ec.SetError(mulRight()) }()
//	wg.Wait()
//	return ec.Err()
type ErrorCollector struct {
	mu      sync.Mutex
	err     error
	dropped int
}

// SetError records err unless an error is already held. Nil is ignored.
func (c *ErrorCollector) SetError(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = err
		return
	}
	c.dropped++
}

// Err returns the first recorded error.
func (c *ErrorCollector) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Dropped is the number of errors discarded after the first.
func (c *ErrorCollector) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// RunAll runs every task on its own goroutine, waits for all of them and
// returns the first error. Tasks receive ctx unchanged; a failing task does
// not cancel the others. Further errors are counted in a debug line.
func RunAll(ctx context.Context, tasks ...func(context.Context) error) error {
	var (
		wg sync.WaitGroup
		ec ErrorCollector
	)
	wg.Add(len(tasks))
	for _, task := range tasks {
		go func() {
			defer wg.Done()
			ec.SetError(task(ctx))
		}()
	}
	wg.Wait()
	if n := ec.Dropped(); n > 0 {
		log.Debug().Err(ec.Err()).Int("dropped", n).Msg("parallel tasks failed")
	}
	return ec.Err()
}
