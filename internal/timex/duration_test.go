package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"string seconds", `"3s"`, 3 * time.Second, false},
		{"string compound", `"1m30s"`, 90 * time.Second, false},
		{"nanoseconds", `1000000000`, time.Second, false},
		{"null", `null`, 0, false},
		{"bad string", `"soon"`, 0, true},
		{"bool", `true`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.in), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration)
		})
	}
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Duration{Duration: 2 * time.Second})
	require.NoError(t, err)
	assert.JSONEq(t, `"2s"`, string(b))
}

func TestDuration_InStruct(t *testing.T) {
	var cfg struct {
		Interval Duration `json:"interval"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"interval":"250ms"}`), &cfg))
	assert.Equal(t, 250*time.Millisecond, cfg.Interval.Duration)
}
