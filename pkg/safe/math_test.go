package safe

import (
	"errors"
	"math"
	"testing"
)

func TestSafeMath(t *testing.T) {
	tests := []struct {
		name    string
		op      func(a, b int64) (int64, error)
		val1    int64
		val2    int64
		want    int64
		wantErr bool
	}{
		{"Normal Add", Add, 10, 20, 30, false},
		{"Add Boundary", Add, math.MaxInt64 - 1, 1, math.MaxInt64, false},
		{"Add Overflow", Add, math.MaxInt64, 1, 0, true},
		{"Add Underflow", Add, math.MinInt64, -1, 0, true},
		{"Normal Sub", Sub, 30, 10, 20, false},
		{"Sub Negative", Sub, 10, 30, -20, false},
		{"Sub Underflow", Sub, math.MinInt64, 1, 0, true},
		{"Sub Overflow", Sub, math.MaxInt64, -1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op(tt.val1, tt.val2)
			if tt.wantErr {
				if !errors.Is(err, ErrOverflow) {
					t.Errorf("err = %v, want ErrOverflow", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestToUint32(t *testing.T) {
	tests := []struct {
		in      int64
		want    uint32
		wantErr bool
	}{
		{0, 0, false},
		{20, 20, false},
		{math.MaxUint32, math.MaxUint32, false},
		{math.MaxUint32 + 1, 0, true},
		{-1, 0, true},
	}
	for _, tt := range tests {
		got, err := ToUint32(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ToUint32(%d) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrOutOfRange) {
			t.Errorf("ToUint32(%d) err = %v, want ErrOutOfRange", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ToUint32(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
