package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/juicecola/construct-agent/internal/domain"
)

func TestListEmptyIsNotNil(t *testing.T) {
	s := New()
	got := s.Hazards.List()
	if got == nil {
		t.Fatal("List on empty store returned nil")
	}
	if len(got) != 0 {
		t.Fatalf("expected empty list, got %d records", len(got))
	}
}

func TestAppendPreservesInsertionOrder(t *testing.T) {
	s := New()
	for i := 0; i < 5; i++ {
		s.Attendance.Append(domain.AttendanceRecord{WorkerID: fmt.Sprintf("w-%d", i), Action: domain.ActionCheckIn})
	}
	got := s.Attendance.List()
	if len(got) != 5 {
		t.Fatalf("expected 5 records, got %d", len(got))
	}
	for i, rec := range got {
		if want := fmt.Sprintf("w-%d", i); rec.WorkerID != want {
			t.Fatalf("record %d: got worker %q, want %q", i, rec.WorkerID, want)
		}
	}
}

func TestListReturnsDetachedSnapshot(t *testing.T) {
	s := New()
	s.Hazards.Append(domain.HazardRecord{Location: "Site1"})
	snap := s.Hazards.List()
	snap[0].Location = "mutated"

	again := s.Hazards.List()
	if again[0].Location != "Site1" {
		t.Fatalf("mutating a snapshot leaked into the store: %q", again[0].Location)
	}
}

func TestConcurrentAppends(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Deliveries.Append(domain.DeliveryRecord{OrderID: fmt.Sprintf("o-%d", n)})
		}(i)
	}
	wg.Wait()
	if got := s.Deliveries.Len(); got != 50 {
		t.Fatalf("expected 50 records after concurrent appends, got %d", got)
	}
}
