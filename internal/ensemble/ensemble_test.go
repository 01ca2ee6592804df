package ensemble

import (
	"context"
	"errors"
	"math"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Skshirin/factify/internal/domain"
	"github.com/Skshirin/factify/pkg/models"
)

type stubAdapter struct {
	name  string
	real  float64
	err   error
	delay time.Duration

	mu    sync.Mutex
	calls int
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Predict(ctx context.Context, _ string) (domain.ModelResult, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return domain.ModelResult{}, ctx.Err()
		}
	}
	if s.err != nil {
		return domain.ModelResult{}, s.err
	}
	return models.ResultFromSplit(s.name, 1-s.real, s.real), nil
}

func fiveModels() []*stubAdapter {
	return []*stubAdapter{
		{name: "distilbert", real: 0.91},
		{name: "roberta", real: 0.88},
		{name: "cnn", real: 0.76},
		{name: "lstm", real: 0.81},
		{name: "bilstm", real: 0.79},
	}
}

func asAdapters(stubs []*stubAdapter) []models.Adapter {
	out := make([]models.Adapter, len(stubs))
	for i, s := range stubs {
		out[i] = s
	}
	return out
}

func TestAggregatePicksMostConfident(t *testing.T) {
	res, err := New(5, nil).Aggregate(context.Background(), "Rahul Gandhi is from the male gender", asAdapters(fiveModels()))
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if res.BestModel != "distilbert" || res.Confidence != 0.91 {
		t.Fatalf("expected distilbert at 0.91, got %s at %v", res.BestModel, res.Confidence)
	}
	if res.RealPercentage != 91 || res.FakePercentage != 9 {
		t.Fatalf("unexpected winning split %v/%v", res.FakePercentage, res.RealPercentage)
	}
	want := []string{"distilbert", "roberta", "cnn", "lstm", "bilstm"}
	if !reflect.DeepEqual(res.AllModelResults.Names(), want) {
		t.Fatalf("results not in priority order: %v", res.AllModelResults.Names())
	}
	for _, r := range res.AllModelResults {
		if r.Confidence > res.Confidence {
			t.Fatalf("%s has higher confidence than the winner", r.Model)
		}
		if math.Round(r.FakePercentage+r.RealPercentage) != 100 {
			t.Fatalf("%s percentages do not sum to 100", r.Model)
		}
	}
}

func TestAggregateSkipsFailures(t *testing.T) {
	stubs := fiveModels()
	stubs[0].err = errors.New("endpoint down")
	stubs[3].err = errors.New("bad shape")

	res, err := New(2, nil).Aggregate(context.Background(), "text", asAdapters(stubs))
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(res.AllModelResults) != 3 {
		t.Fatalf("expected 3 results, got %d", len(res.AllModelResults))
	}
	if len(res.Failures) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(res.Failures))
	}
	var adapterErr *domain.AdapterError
	if !errors.As(res.Failures[0], &adapterErr) || adapterErr.Model != "distilbert" {
		t.Fatalf("failure should name distilbert, got %v", res.Failures[0])
	}
	if res.BestModel != "roberta" {
		t.Fatalf("expected roberta to win among survivors, got %s", res.BestModel)
	}
	if slices.Contains(res.AllModelResults.Names(), "lstm") {
		t.Fatalf("failed model must not appear in results")
	}
}

func TestAggregateTieGoesToFirst(t *testing.T) {
	stubs := []*stubAdapter{
		{name: "cnn", real: 0.2},
		{name: "lstm", real: 0.8, delay: 20 * time.Millisecond},
		{name: "bilstm", real: 0.8},
	}
	res, err := New(0, nil).Aggregate(context.Background(), "text", asAdapters(stubs))
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	// cnn (fake 80) and lstm/bilstm (real 80) all have confidence 0.8
	if res.BestModel != "cnn" {
		t.Fatalf("expected earliest adapter to win the tie, got %s", res.BestModel)
	}
}

func TestAggregateIsIdempotent(t *testing.T) {
	agg := New(3, nil)
	adapters := asAdapters(fiveModels())
	first, err := agg.Aggregate(context.Background(), "text", adapters)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	second, err := agg.Aggregate(context.Background(), "text", adapters)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("aggregate is not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestAggregateAllFail(t *testing.T) {
	stubs := []*stubAdapter{
		{name: "a", err: errors.New("x")},
		{name: "b", err: errors.New("y")},
	}
	_, err := New(2, nil).Aggregate(context.Background(), "text", asAdapters(stubs))
	if !errors.Is(err, domain.ErrEnsembleEmpty) {
		t.Fatalf("expected ErrEnsembleEmpty, got %v", err)
	}
	var emptyErr *domain.EnsembleEmptyError
	if !errors.As(err, &emptyErr) || len(emptyErr.Failures) != 2 {
		t.Fatalf("expected both failures recorded, got %v", err)
	}

	if _, err := New(2, nil).Aggregate(context.Background(), "text", nil); !errors.Is(err, domain.ErrEnsembleEmpty) {
		t.Fatalf("expected ErrEnsembleEmpty for no adapters, got %v", err)
	}
}

type panickyAdapter struct{}

func (panickyAdapter) Name() string { return "broken" }
func (panickyAdapter) Predict(context.Context, string) (domain.ModelResult, error) {
	panic("nil tensor")
}

func TestAggregateRecoversPanics(t *testing.T) {
	adapters := []models.Adapter{panickyAdapter{}, &stubAdapter{name: "cnn", real: 0.7}}
	res, err := New(2, nil).Aggregate(context.Background(), "text", adapters)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if res.BestModel != "cnn" || len(res.Failures) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
}

type countingAdapter struct {
	name    string
	active  *int32
	maxSeen *int32
}

func (c countingAdapter) Name() string { return c.name }
func (c countingAdapter) Predict(context.Context, string) (domain.ModelResult, error) {
	n := atomic.AddInt32(c.active, 1)
	for {
		m := atomic.LoadInt32(c.maxSeen)
		if n <= m || atomic.CompareAndSwapInt32(c.maxSeen, m, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	atomic.AddInt32(c.active, -1)
	return models.ResultFromSplit(c.name, 0.5, 0.5), nil
}

func TestAggregateRespectsParallelism(t *testing.T) {
	var active, maxSeen int32
	adapters := make([]models.Adapter, 6)
	for i := range adapters {
		adapters[i] = countingAdapter{name: string(rune('a' + i)), active: &active, maxSeen: &maxSeen}
	}
	if _, err := New(2, nil).Aggregate(context.Background(), "text", adapters); err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if maxSeen > 2 {
		t.Fatalf("expected at most 2 concurrent predictions, saw %d", maxSeen)
	}
}
