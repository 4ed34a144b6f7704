package evaluation

import (
	"testing"

	"github.com/wonny/factorlab/internal/contracts"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		meanIC      *float64
		icIR        *float64
		hitRate     *float64
		isMonotonic bool
		want        contracts.Status
	}{
		{
			name:        "all bars cleared",
			meanIC:      floatPtr(0.03),
			icIR:        floatPtr(0.4),
			hitRate:     floatPtr(0.6),
			isMonotonic: true,
			want:        contracts.StatusActive,
		},
		{
			name:        "negative mean ic is inactive regardless",
			meanIC:      floatPtr(-0.01),
			icIR:        floatPtr(2.0),
			hitRate:     floatPtr(0.9),
			isMonotonic: true,
			want:        contracts.StatusInactive,
		},
		{
			name:        "zero mean ic is inactive",
			meanIC:      floatPtr(0),
			icIR:        floatPtr(0.5),
			hitRate:     floatPtr(0.6),
			isMonotonic: true,
			want:        contracts.StatusInactive,
		},
		{
			name:        "mean ic below active bar",
			meanIC:      floatPtr(0.01),
			icIR:        floatPtr(0.4),
			hitRate:     floatPtr(0.6),
			isMonotonic: true,
			want:        contracts.StatusWarning,
		},
		{
			name:        "ic ir below active bar",
			meanIC:      floatPtr(0.03),
			icIR:        floatPtr(0.2),
			hitRate:     floatPtr(0.6),
			isMonotonic: true,
			want:        contracts.StatusWarning,
		},
		{
			name:        "not monotonic",
			meanIC:      floatPtr(0.03),
			icIR:        floatPtr(0.4),
			hitRate:     floatPtr(0.6),
			isMonotonic: false,
			want:        contracts.StatusWarning,
		},
		{
			name:        "hit rate below active bar",
			meanIC:      floatPtr(0.03),
			icIR:        floatPtr(0.4),
			hitRate:     floatPtr(0.5),
			isMonotonic: true,
			want:        contracts.StatusWarning,
		},
		{
			name:        "undefined mean ic is warning, never active",
			meanIC:      nil,
			icIR:        nil,
			hitRate:     nil,
			isMonotonic: true,
			want:        contracts.StatusWarning,
		},
		{
			name:        "positive mean ic with undefined ir is warning",
			meanIC:      floatPtr(0.05),
			icIR:        nil,
			hitRate:     floatPtr(0.8),
			isMonotonic: true,
			want:        contracts.StatusWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := Summary{
				MeanIC:  tt.meanIC,
				ICIR:    tt.icIR,
				HitRate: tt.hitRate,
			}
			if got := Classify(summary, tt.isMonotonic); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}
