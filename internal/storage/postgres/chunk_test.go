package postgres

import (
	"reflect"
	"testing"
)

func TestSplitSpans(t *testing.T) {
	got, err := splitSpans(6, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []span{
		{From: 0, To: 1},
		{From: 2, To: 3},
		{From: 4, To: 5},
	}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("spans mismatch: %+v != %+v", got, want)
	}
}

func TestSplitSpansUneven(t *testing.T) {
	got, err := splitSpans(5, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []span{
		{From: 0, To: 1},
		{From: 2, To: 3},
		{From: 4, To: 4},
	}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("spans mismatch: %+v != %+v", got, want)
	}
}

func TestSplitSpansEmpty(t *testing.T) {
	got, err := splitSpans(0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no spans, got %+v", got)
	}
}

func TestSplitSpansInvalid(t *testing.T) {
	if _, err := splitSpans(10, 0); err == nil {
		t.Fatalf("expected error for zero chunk size")
	}
	if _, err := splitSpans(-1, 1); err == nil {
		t.Fatalf("expected error for negative length")
	}
}
