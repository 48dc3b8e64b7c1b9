package pipeline

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"spectrocheck/internal/analyzer"
	"spectrocheck/internal/fileid"
)

func testIdentity(n int) fileid.Identity {
	return fileid.Identity{Path: fmt.Sprintf("/music/track-%03d.mp3", n), Size: 1024, ModTime: 1700000000}
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 5; i++ {
		if got := q.Enqueue(NewTask(testIdentity(i), 0, analyzer.KindSpectrum)); got != EnqueueAccepted {
			t.Fatalf("enqueue %d = %v, want accepted", i, got)
		}
	}

	for i := 0; i < 5; i++ {
		task, ok := q.Dequeue()
		if !ok {
			t.Fatalf("dequeue %d: queue closed", i)
		}
		if task.Identity.Path != testIdentity(i).Path {
			t.Fatalf("dequeue %d = %s, want %s", i, task.Identity.Path, testIdentity(i).Path)
		}
		q.Done(task)
	}
	if q.Len() != 0 {
		t.Fatalf("Len = %d, want 0", q.Len())
	}
}

func TestQueueDeduplicatesByIdentity(t *testing.T) {
	q := NewQueue()
	id := testIdentity(1)

	if got := q.Enqueue(NewTask(id, 0, analyzer.KindSpectrum)); got != EnqueueAccepted {
		t.Fatalf("first enqueue = %v, want accepted", got)
	}
	if got := q.Enqueue(NewTask(id, 0, analyzer.KindSpectrum)); got != EnqueueDuplicate {
		t.Fatalf("second enqueue = %v, want duplicate", got)
	}

	task, ok := q.Dequeue()
	if !ok {
		t.Fatal("dequeue: queue closed")
	}
	// Still in flight until Done, so the identity stays claimed.
	if got := q.Enqueue(NewTask(id, 0, analyzer.KindSpectrum)); got != EnqueueDuplicate {
		t.Fatalf("in-flight enqueue = %v, want duplicate", got)
	}
	q.Done(task)
	if got := q.Enqueue(NewTask(id, 0, analyzer.KindSpectrum)); got != EnqueueAccepted {
		t.Fatalf("enqueue after Done = %v, want accepted", got)
	}
}

func TestQueueCloseAbandonsPending(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 3; i++ {
		q.Enqueue(NewTask(testIdentity(i), 0, analyzer.KindSpectrum))
	}

	q.Close()
	if _, ok := q.Dequeue(); ok {
		t.Fatal("dequeue returned a task after close")
	}
	if got := q.Enqueue(NewTask(testIdentity(9), 0, analyzer.KindSpectrum)); got != EnqueueClosed {
		t.Fatalf("enqueue after close = %v, want closed", got)
	}
}

func TestQueueCloseWakesBlockedConsumer(t *testing.T) {
	q := NewQueue()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, ok := q.Dequeue(); ok {
			t.Error("dequeue returned a task from an empty closed queue")
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer still blocked after close")
	}
}

func TestQueueConcurrentProducersDeliverExactlyOnce(t *testing.T) {
	q := NewQueue()

	const producers = 10
	const perProducer = 20

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(NewTask(testIdentity(p*perProducer+i), 0, analyzer.KindSpectrum))
			}
		}(p)
	}

	seen := make(map[string]int)
	for n := 0; n < producers*perProducer; n++ {
		task, ok := q.Dequeue()
		if !ok {
			t.Fatalf("queue closed after %d tasks", n)
		}
		seen[task.Identity.Path]++
		q.Done(task)
	}
	wg.Wait()

	if len(seen) != producers*perProducer {
		t.Fatalf("delivered %d distinct tasks, want %d", len(seen), producers*perProducer)
	}
	for path, count := range seen {
		if count != 1 {
			t.Fatalf("%s delivered %d times", path, count)
		}
	}
}
