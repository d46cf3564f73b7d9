package history

import (
	"sync"
	"testing"

	"sensor-monitor/internal/models"
)

func reading(i int) models.Reading {
	return models.Reading{
		Timestamp:  "2026-01-01 00:00:00",
		SensorData: models.SensorData{Gas: float64(i)},
	}
}

func TestBufferKeepsLastCapacityItemsInOrder(t *testing.T) {
	for _, tc := range []struct{ capacity, appends int }{
		{5, 0}, {5, 3}, {5, 5}, {5, 6}, {5, 17}, {1, 4},
	} {
		b := NewBuffer(tc.capacity)
		for i := 0; i < tc.appends; i++ {
			b.Append(reading(i))
		}

		want := tc.appends
		if want > tc.capacity {
			want = tc.capacity
		}
		if b.Len() != want {
			t.Fatalf("cap=%d n=%d: expected len %d, got %d", tc.capacity, tc.appends, want, b.Len())
		}

		snap := b.Snapshot(0)
		if len(snap) != want {
			t.Fatalf("cap=%d n=%d: expected snapshot len %d, got %d", tc.capacity, tc.appends, want, len(snap))
		}
		first := tc.appends - want
		for i, r := range snap {
			if int(r.SensorData.Gas) != first+i {
				t.Fatalf("cap=%d n=%d: position %d holds %v, want %d", tc.capacity, tc.appends, i, r.SensorData.Gas, first+i)
			}
		}
	}
}

func TestBufferSnapshotLastK(t *testing.T) {
	b := NewBuffer(10)
	for i := 0; i < 12; i++ {
		b.Append(reading(i))
	}

	snap := b.Snapshot(3)
	if len(snap) != 3 {
		t.Fatalf("expected 3 items, got %d", len(snap))
	}
	for i, want := range []float64{9, 10, 11} {
		if snap[i].SensorData.Gas != want {
			t.Fatalf("position %d: expected %v, got %v", i, want, snap[i].SensorData.Gas)
		}
	}

	if got := len(b.Snapshot(50)); got != 10 {
		t.Fatalf("expected oversized k to return whole history, got %d", got)
	}
}

func TestBufferSnapshotIsIndependentCopy(t *testing.T) {
	b := NewBuffer(3)
	b.Append(reading(1))
	b.Append(reading(2))

	snap := b.Snapshot(0)
	snap[0].SensorData.Gas = 999
	b.Append(reading(3))
	b.Append(reading(4))

	if snap[0].SensorData.Gas != 999 || snap[1].SensorData.Gas != 2 || len(snap) != 2 {
		t.Fatalf("snapshot observed later mutation: %+v", snap)
	}
	if fresh := b.Snapshot(0); fresh[0].SensorData.Gas != 2 {
		t.Fatalf("caller mutation leaked into buffer: %+v", fresh)
	}
}

func TestBufferLatest(t *testing.T) {
	b := NewBuffer(2)
	if _, ok := b.Latest(); ok {
		t.Fatal("expected empty buffer to report no latest reading")
	}
	for i := 0; i < 5; i++ {
		b.Append(reading(i))
	}
	latest, ok := b.Latest()
	if !ok || latest.SensorData.Gas != 4 {
		t.Fatalf("expected latest gas 4, got %v (ok=%v)", latest.SensorData.Gas, ok)
	}
}

func TestBufferDefaultCapacity(t *testing.T) {
	if got := NewBuffer(0).Cap(); got != DefaultCapacity {
		t.Fatalf("expected default capacity %d, got %d", DefaultCapacity, got)
	}
}

func TestBufferConcurrentAppend(t *testing.T) {
	b := NewBuffer(100)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				b.Append(reading(i))
				_ = b.Snapshot(15)
			}
		}()
	}
	wg.Wait()

	if b.Len() != 100 {
		t.Fatalf("expected full buffer, got %d", b.Len())
	}
}
