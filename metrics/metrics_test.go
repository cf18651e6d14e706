package metrics

import (
	"sync"
	"testing"
)

func TestMetrics_RecordVerdict(t *testing.T) {
	m := New()

	m.RecordVerdict("/a", true)
	m.RecordVerdict("/a", true)
	m.RecordVerdict("/a", false)
	m.RecordVerdict("/b", true)

	snap := m.GetSnapshot()
	if snap.Allowed != 3 || snap.Denied != 1 {
		t.Errorf("totals = %d allowed / %d denied, want 3/1", snap.Allowed, snap.Denied)
	}
	if snap.Resources != 2 {
		t.Errorf("Resources = %d, want 2", snap.Resources)
	}

	// /a has the most traffic and sorts first.
	if len(snap.TopResources) != 2 || snap.TopResources[0].Resource != "/a" {
		t.Fatalf("TopResources = %+v", snap.TopResources)
	}
	a := snap.TopResources[0]
	if a.Allowed != 2 || a.Denied != 1 {
		t.Errorf("/a stats = %+v", a)
	}
}

func TestMetrics_RecordFallback(t *testing.T) {
	m := New()

	m.RecordFallback("/a", true)
	m.RecordFallback("/a", false)

	snap := m.GetSnapshot()
	if snap.FallbackAllowed != 1 || snap.FallbackDenied != 1 {
		t.Errorf("fallback totals = %d/%d, want 1/1", snap.FallbackAllowed, snap.FallbackDenied)
	}
	if snap.Allowed != 0 || snap.Denied != 0 {
		t.Error("fallback decisions must not count as normal verdicts")
	}
}

func TestMetrics_ConcurrentRecording(t *testing.T) {
	m := New()

	const perKind = 100
	var wg sync.WaitGroup
	for i := 0; i < perKind; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.RecordVerdict("/hot", true)
		}()
		go func() {
			defer wg.Done()
			m.RecordFallback("/hot", true)
		}()
	}
	wg.Wait()

	snap := m.GetSnapshot()
	if snap.Allowed != perKind || snap.FallbackAllowed != perKind {
		t.Errorf("totals = %d/%d, want %d/%d",
			snap.Allowed, snap.FallbackAllowed, perKind, perKind)
	}
}

func TestMetrics_SnapshotIsCopy(t *testing.T) {
	m := New()
	m.RecordVerdict("/a", true)

	snap := m.GetSnapshot()
	snap.TopResources[0].Allowed = 999

	if got := m.GetSnapshot().TopResources[0].Allowed; got != 1 {
		t.Errorf("mutating a snapshot leaked into the tracker: %d", got)
	}
}
