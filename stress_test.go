package callqueue

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

type stressPayload struct {
	producer int
	seq      int
}

// hammer the dispatcher from concurrent producers: per-producer order is
// preserved, deliveries never overlap, and nothing is lost
func TestDispatcher_concurrentProducers(t *testing.T) {
	defer checkNumGoroutines(time.Second * 5)(t)

	const (
		numProducers        = 8
		numItemsPerProducer = 200
		numItems            = numProducers * numItemsPerProducer
	)

	var (
		inFlight atomic.Bool
		mu       sync.Mutex
		lastSeq  [numProducers]int // 1-based, 0 = none delivered yet
	)

	dispatcher := New(nil, func(args stressPayload) error {
		if !inFlight.CompareAndSwap(false, true) {
			t.Error(`expected serialized deliveries`)
		}
		defer inFlight.Store(false)

		mu.Lock()
		defer mu.Unlock()
		if args.seq != lastSeq[args.producer]+1 {
			t.Errorf(`producer %d: expected seq %d, got %d`, args.producer, lastSeq[args.producer]+1, args.seq)
		}
		lastSeq[args.producer] = args.seq
		return nil
	})
	defer dispatcher.Close()

	var g errgroup.Group
	for producer := range numProducers {
		g.Go(func() error {
			for seq := 1; seq <= numItemsPerProducer; seq++ {
				dispatcher.Call(stressPayload{producer: producer, seq: seq})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	waitFor(t, time.Second*10, func() bool { return dispatcher.Stats().Delivered == numItems })

	if s := dispatcher.Stats(); s.Enqueued != numItems || s.Pending != 0 || s.Failed != 0 {
		t.Errorf(`unexpected stats: %+v`, s)
	}
}

// pause/resume cycles under load: the single-consumer guarantee holds across
// worker generations, and the backlog survives every cycle
func TestDispatcher_pauseResumeChurn(t *testing.T) {
	defer checkNumGoroutines(time.Second * 5)(t)

	const numItems = 500

	var inFlight atomic.Bool

	dispatcher := New(nil, func(args int) error {
		if !inFlight.CompareAndSwap(false, true) {
			t.Error(`expected serialized deliveries`)
		}
		defer inFlight.Store(false)
		return nil
	})
	defer dispatcher.Close()

	stop := make(chan struct{})
	var g errgroup.Group
	g.Go(func() error {
		defer close(stop)
		for i := 1; i <= numItems; i++ {
			dispatcher.Call(i)
			if i%100 == 0 {
				time.Sleep(time.Millisecond)
			}
		}
		return nil
	})

	for churning := true; churning; {
		select {
		case <-stop:
			churning = false
		default:
			dispatcher.PauseBeforeFork()
			if err := dispatcher.ResumeAfterForkInParent(); err != nil {
				t.Fatal(err)
			}
		}
	}

	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	waitFor(t, time.Second*10, func() bool { return dispatcher.Stats().Delivered == numItems })

	if s := dispatcher.Stats(); s.Pending != 0 || s.Failed != 0 {
		t.Errorf(`unexpected stats: %+v`, s)
	}
}
