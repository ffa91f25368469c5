package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestAddRejectsBadSpec(t *testing.T) {
	s := New(zap.NewNop())
	if err := s.Add("bad", "not a cron spec", func(context.Context) error { return nil }); err == nil {
		t.Error("expected error for invalid spec")
	}
}

func TestScheduledJobRuns(t *testing.T) {
	s := New(zap.NewNop())
	ran := make(chan struct{}, 1)
	err := s.Add("tick", "@every 10ms", func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	s.Start()
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}
}

func TestJobFailureDoesNotStopSchedule(t *testing.T) {
	s := New(zap.NewNop())
	runs := make(chan struct{}, 4)
	err := s.Add("flaky", "@every 10ms", func(context.Context) error {
		select {
		case runs <- struct{}{}:
		default:
		}
		return errors.New("transient")
	})
	if err != nil {
		t.Fatal(err)
	}

	s.Start()
	defer s.Stop()

	for i := 0; i < 2; i++ {
		select {
		case <-runs:
		case <-time.After(2 * time.Second):
			t.Fatalf("run %d never fired", i)
		}
	}
}
