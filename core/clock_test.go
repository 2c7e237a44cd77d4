package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateClockOffset(t *testing.T) {
	tests := []struct {
		name   string
		t0     int64
		remote int64
		t3     int64
		want   int64
	}{
		{name: "remote ahead", t0: 1000, remote: 1050, t3: 1020, want: 40},
		{name: "clocks aligned, zero rtt", t0: 1000, remote: 1000, t3: 1000, want: 0},
		{name: "remote behind", t0: 2000, remote: 1900, t3: 2100, want: -150},
		{name: "rtt swallows difference", t0: 1000, remote: 1010, t3: 1020, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateClockOffset(tt.t0, tt.remote, tt.t3))
		})
	}
}
