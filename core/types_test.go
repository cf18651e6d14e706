package core

import (
	"errors"
	"testing"
	"time"
)

func TestNewRule(t *testing.T) {
	tests := []struct {
		name        string
		capacity    int64
		window      time.Duration
		wantErr     bool
		expectedErr error
	}{
		{
			name:     "valid rule",
			capacity: 100,
			window:   time.Second,
			wantErr:  false,
		},
		{
			name:     "unlimited sentinel",
			capacity: Unlimited,
			window:   time.Second,
			wantErr:  false,
		},
		{
			name:        "zero capacity",
			capacity:    0,
			window:      time.Second,
			wantErr:     true,
			expectedErr: ErrInvalidCapacity,
		},
		{
			name:        "negative capacity",
			capacity:    -1,
			window:      time.Second,
			wantErr:     true,
			expectedErr: ErrInvalidCapacity,
		},
		{
			name:        "zero window",
			capacity:    10,
			window:      0,
			wantErr:     true,
			expectedErr: ErrInvalidWindow,
		},
		{
			name:        "negative window",
			capacity:    10,
			window:      -time.Second,
			wantErr:     true,
			expectedErr: ErrInvalidWindow,
		},
		{
			name:        "sub-millisecond window",
			capacity:    10,
			window:      500 * time.Microsecond,
			wantErr:     true,
			expectedErr: ErrInvalidWindow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := NewRule(tt.capacity, tt.window)
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewRule() expected error, got nil")
				}
				if !errors.Is(err, tt.expectedErr) {
					t.Errorf("NewRule() error = %v, want %v", err, tt.expectedErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewRule() unexpected error: %v", err)
			}
			if rule.Capacity != tt.capacity || rule.Window != tt.window {
				t.Errorf("NewRule() = %+v", rule)
			}
		})
	}
}

func TestRule_Admit(t *testing.T) {
	rule := Rule{Capacity: 5, Window: time.Second}

	// Inclusive boundary: count == capacity is the last admitted request.
	for count := int64(1); count <= 5; count++ {
		if !rule.Admit(count) {
			t.Errorf("Admit(%d) = false, want true", count)
		}
	}
	if rule.Admit(6) {
		t.Error("Admit(6) = true, want false (first deny at capacity+1)")
	}
}

func TestRule_AdmitUnlimited(t *testing.T) {
	rule := Rule{Capacity: Unlimited, Window: time.Second}

	for _, count := range []int64{1, 1_000_000, Unlimited} {
		if !rule.Admit(count) {
			t.Errorf("unlimited rule denied at count %d", count)
		}
	}
}

func TestRule_Remaining(t *testing.T) {
	rule := Rule{Capacity: 3, Window: time.Second}

	tests := []struct {
		count int64
		want  int64
	}{
		{count: 1, want: 2},
		{count: 2, want: 1},
		{count: 3, want: 0},
		{count: 7, want: 0},
	}

	for _, tt := range tests {
		if got := rule.Remaining(tt.count); got != tt.want {
			t.Errorf("Remaining(%d) = %d, want %d", tt.count, got, tt.want)
		}
	}
}
