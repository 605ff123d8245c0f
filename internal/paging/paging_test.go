package paging

import "testing"

func TestNewPage_Flags(t *testing.T) {
	p := NewPage([]int{1, 2}, Request{Page: 2, Limit: 2}, 5)
	if p.TotalPages != 3 {
		t.Fatalf("expected 3 pages, got %d", p.TotalPages)
	}
	if p.First || p.Last || !p.HasNext || !p.HasPrevious {
		t.Fatalf("unexpected flags: %+v", p)
	}

	last := NewPage([]int{5}, Request{Page: 3, Limit: 2}, 5)
	if !last.Last || last.HasNext {
		t.Fatalf("expected last page: %+v", last)
	}
}

func TestNewPage_Empty(t *testing.T) {
	p := NewPage[int](nil, Request{Page: 1, Limit: 10}, 0)
	if p.Content == nil || len(p.Content) != 0 {
		t.Fatalf("expected empty non-nil content")
	}
	if !p.First || !p.Last || p.TotalPages != 0 {
		t.Fatalf("unexpected empty page: %+v", p)
	}
}

func TestRequest_NormalizeAndValid(t *testing.T) {
	r := Request{}.Normalize()
	if r.Page != 1 || r.Limit != DefaultLimit || !r.Valid() {
		t.Fatalf("unexpected defaults: %+v", r)
	}
	if (Request{Page: 1, Limit: MaxLimit + 1}).Valid() {
		t.Fatalf("expected limit above max to be invalid")
	}
	if (Request{Page: 3, Limit: 10}).Offset() != 20 {
		t.Fatalf("unexpected offset")
	}
}
