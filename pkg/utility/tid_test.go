package utility

import (
	"testing"
	"time"
)

func TestCreateTraceID_Unique(t *testing.T) {
	seen := make(map[TraceID]struct{})
	for i := 0; i < 1000; i++ {
		id := CreateTraceID()
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate trace id: %d", id)
		}
		seen[id] = struct{}{}
	}
}

func TestParseTraceID(t *testing.T) {
	before := time.Now()
	id := CreateTraceID()

	timestamp, machine, seq := ParseTraceID(id)

	if timestamp.Before(before.Add(-time.Second)) || timestamp.After(time.Now().Add(time.Second)) {
		t.Errorf("timestamp %v out of range", timestamp)
	}
	if machine > maxMachine {
		t.Errorf("machine %d exceeds %d", machine, maxMachine)
	}
	if seq > maxSequence {
		t.Errorf("sequence %d exceeds %d", seq, maxSequence)
	}
}

func TestGetExecutionID_Stable(t *testing.T) {
	a := GetExecutionID()
	b := GetExecutionID()
	if a != b {
		t.Error("execution id must be stable within a process")
	}

	c := ResetExecutionID()
	if c == a {
		t.Error("reset must produce a fresh execution id")
	}
	if GetExecutionID() != c {
		t.Error("get must return the reset id")
	}
}
