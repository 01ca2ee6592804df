package publishers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Delivery summarizes one fanout. Skipped counts sinks whose filter rejected the event.
type Delivery struct {
	Delivered int
	Skipped   int
	Failed    int
}

// Fanout sends each event to every route whose filter accepts it.
type Fanout struct {
	routes []Route
}

// NewFanout drops routes without a publisher.
func NewFanout(routes ...Route) *Fanout {
	cp := make([]Route, 0, len(routes))
	for _, r := range routes {
		if r.Publisher != nil {
			cp = append(cp, r)
		}
	}
	return &Fanout{routes: cp}
}

// Publish delivers to the matching sinks concurrently. The error joins every sink failure.
func (f *Fanout) Publish(ctx context.Context, evt Event) (Delivery, error) {
	var d Delivery
	if f == nil || len(f.routes) == 0 {
		return d, nil
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for _, r := range f.routes {
		if !r.Filter.Accepts(evt) {
			d.Skipped++
			continue
		}
		p := r.Publisher
		g.Go(func() error {
			err := p.Publish(ctx, evt)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				d.Failed++
				errs = append(errs, fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err))
				return nil
			}
			d.Delivered++
			return nil
		})
	}
	_ = g.Wait()
	return d, errors.Join(errs...)
}

// Size returns the number of configured sinks.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.routes)
}

// Close releases sinks that hold connections.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	return closeAll(f.routes)
}

func closeAll(routes []Route) error {
	var errs []error
	for _, r := range routes {
		c, ok := r.Publisher.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s publisher[%s]: %w", r.Publisher.Type(), r.Publisher.ID(), err))
		}
	}
	return errors.Join(errs...)
}
