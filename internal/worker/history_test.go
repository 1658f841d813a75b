package worker

import (
	"reflect"
	"testing"
)

func TestHistory_Empty(t *testing.T) {
	h := NewHistory[int](3)

	if h.Len() != 0 {
		t.Errorf("Expected empty history, got %d items", h.Len())
	}
	if _, ok := h.Newest(); ok {
		t.Error("Expected no newest item")
	}
	if got := h.List(); len(got) != 0 {
		t.Errorf("Expected empty list, got %v", got)
	}
}

func TestHistory_NewestFirst(t *testing.T) {
	h := NewHistory[int](3)
	h.Push(1)
	h.Push(2)

	if got, want := h.List(), []int{2, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if newest, _ := h.Newest(); newest != 2 {
		t.Errorf("Expected newest 2, got %d", newest)
	}
}

func TestHistory_EvictsOldest(t *testing.T) {
	h := NewHistory[int](3)
	for i := 1; i <= 5; i++ {
		h.Push(i)
	}

	if h.Len() != 3 {
		t.Errorf("Expected 3 items, got %d", h.Len())
	}
	if got, want := h.List(), []int{5, 4, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestHistory_DefaultCapacity(t *testing.T) {
	h := NewHistory[int](DefaultHistorySize)
	for i := 0; i < 50; i++ {
		h.Push(i)
	}

	list := h.List()
	if len(list) != 20 {
		t.Fatalf("Expected 20 items, got %d", len(list))
	}
	if list[0] != 49 || list[19] != 30 {
		t.Errorf("Expected 49..30, got %d..%d", list[0], list[19])
	}
}

func TestHistory_MinimumCapacity(t *testing.T) {
	h := NewHistory[string](0)
	h.Push("a")
	h.Push("b")

	if h.Cap() != 1 {
		t.Errorf("Expected capacity 1, got %d", h.Cap())
	}
	if got := h.List(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("Expected [b], got %v", got)
	}
}
