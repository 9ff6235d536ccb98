package common

import "testing"

func TestPartition(t *testing.T) {
	tests := []struct {
		n, size int
		want    []int
	}{
		{1201, 500, []int{500, 500, 201}},
		{1000, 500, []int{500, 500}},
		{499, 500, []int{499}},
		{1, 1, []int{1}},
		{0, 500, nil},
		{10, 0, nil},
	}

	for _, tt := range tests {
		spans := Partition(tt.n, tt.size)
		if len(spans) != len(tt.want) {
			t.Fatalf("Partition(%d, %d) = %v, want counts %v", tt.n, tt.size, spans, tt.want)
		}
		next := 0
		for i, s := range spans {
			if s.Count != tt.want[i] {
				t.Errorf("Partition(%d, %d)[%d].Count = %d, want %d", tt.n, tt.size, i, s.Count, tt.want[i])
			}
			if s.Start != next {
				t.Errorf("Partition(%d, %d)[%d].Start = %d, want %d", tt.n, tt.size, i, s.Start, next)
			}
			next = s.End()
		}
	}
}

func TestCoalesce(t *testing.T) {
	if got := Coalesce(0, 0, 3, 4); got != 3 {
		t.Errorf("Coalesce = %d, want 3", got)
	}
	if got := Coalesce("", ""); got != "" {
		t.Errorf("Coalesce = %q, want empty", got)
	}
}
