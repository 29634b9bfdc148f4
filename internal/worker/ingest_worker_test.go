package worker

import (
	"testing"
	"time"
)

func TestRetryDelay(t *testing.T) {
	delays := []time.Duration{time.Minute, 5 * time.Minute, 30 * time.Minute}
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{-1, time.Minute},
		{0, time.Minute},
		{1, 5 * time.Minute},
		{2, 30 * time.Minute},
		{7, 30 * time.Minute},
	}
	for _, tc := range cases {
		if got := retryDelay(delays, tc.attempt); got != tc.want {
			t.Errorf("retryDelay(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
	if got := retryDelay(nil, 0); got != time.Minute {
		t.Errorf("retryDelay with no schedule = %v, want 1m", got)
	}
}
