package diag

import (
	"testing"

	"keel/internal/source"
)

func sp(file source.FileID, start, end uint32) source.Span {
	return source.Span{File: file, Start: start, End: end}
}

func TestBagLimit(t *testing.T) {
	bag := NewBag(2)
	if !bag.Add(NewError(DisNoApplicableImpl, sp(0, 0, 1), "one")) {
		t.Fatal("first Add must succeed")
	}
	if !bag.Add(NewError(DisNoApplicableImpl, sp(0, 1, 2), "two")) {
		t.Fatal("second Add must succeed")
	}
	if bag.Add(NewError(DisNoApplicableImpl, sp(0, 2, 3), "three")) {
		t.Fatal("Add past the limit must report false")
	}
	if bag.Len() != 2 {
		t.Fatalf("Len = %d, want 2", bag.Len())
	}
}

func TestBagSeverityQueries(t *testing.T) {
	bag := NewBag(10)
	bag.Add(NewWarning(MatUnreachableArm, sp(0, 0, 1), "warn"))
	if bag.HasErrors() {
		t.Fatal("warning must not count as error")
	}
	if !bag.HasWarnings() {
		t.Fatal("expected HasWarnings")
	}
	bag.Add(NewFatal(RegDuplicateImpl, sp(0, 1, 2), "fatal"))
	if !bag.HasErrors() || !bag.HasFatal() {
		t.Fatal("fatal must count as error and fatal")
	}
}

func TestBagSortDeterministic(t *testing.T) {
	bag := NewBag(10)
	bag.Add(NewError(MatNonExhaustive, sp(1, 5, 6), "b"))
	bag.Add(NewError(DisAmbiguous, sp(0, 9, 10), "a"))
	bag.Add(NewWarning(MatUnreachableArm, sp(0, 2, 3), "c"))
	bag.Sort()

	items := bag.Items()
	if items[0].Message != "c" || items[1].Message != "a" || items[2].Message != "b" {
		t.Fatalf("unexpected order: %q %q %q", items[0].Message, items[1].Message, items[2].Message)
	}
}

func TestBagMergeGrowsLimit(t *testing.T) {
	a := NewBag(1)
	a.Add(NewError(DisAmbiguous, sp(0, 0, 1), "a"))
	b := NewBag(1)
	b.Add(NewError(DisAmbiguous, sp(0, 1, 2), "b"))
	a.Merge(b)
	if a.Len() != 2 {
		t.Fatalf("Len after merge = %d, want 2", a.Len())
	}
}
