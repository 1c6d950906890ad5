package models

import "testing"

func TestPaginationQueryNormalize(t *testing.T) {
	cases := []struct {
		page, pageSize int
		wantPage       int
		wantSize       int
	}{
		{0, 0, 1, 10},
		{-3, -1, 1, 10},
		{2, 20, 2, 20},
		{1, 101, 1, 10}, // 超出上限回落到默认值
		{1, 100, 1, 100},
	}
	for _, tc := range cases {
		q := PaginationQuery{Page: tc.page, PageSize: tc.pageSize}
		q.Normalize()
		if q.Page != tc.wantPage || q.PageSize != tc.wantSize {
			t.Errorf("Normalize(%d, %d) = (%d, %d), want (%d, %d)",
				tc.page, tc.pageSize, q.Page, q.PageSize, tc.wantPage, tc.wantSize)
		}
	}
}

func TestNewPaginationResult(t *testing.T) {
	r := NewPaginationResult(5, 2, 2)
	if r.Total != 5 || r.Page != 2 || r.PageSize != 2 {
		t.Fatalf("unexpected result: %+v", r)
	}
	if r.TotalPages != 3 {
		t.Fatalf("total pages = %d, want 3", r.TotalPages)
	}

	// 刚好整除和空结果
	if got := NewPaginationResult(10, 1, 5).TotalPages; got != 2 {
		t.Fatalf("total pages = %d, want 2", got)
	}
	if got := NewPaginationResult(0, 1, 10).TotalPages; got != 0 {
		t.Fatalf("total pages = %d, want 0", got)
	}
}
