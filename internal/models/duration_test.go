package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"02:00:00", 2 * time.Hour, false},
		{"1:30:05", time.Hour + 30*time.Minute + 5*time.Second, false},
		{"45:10", 45*time.Minute + 10*time.Second, false},
		{"90", 90 * time.Second, false},
		{"", 0, true},
		{"1:2:3:4", 0, true},
		{"aa:bb", 0, true},
		{"-1:00", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "ParseDuration(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "ParseDuration(%q)", tt.in)
		assert.Equal(t, tt.want, got.Std(), "ParseDuration(%q)", tt.in)
	}
}

func TestDurationJSON(t *testing.T) {
	t.Run("marshals as clock string", func(t *testing.T) {
		b, err := json.Marshal(Duration(time.Hour + 2*time.Minute + 3*time.Second))
		require.NoError(t, err)
		assert.Equal(t, `"01:02:03"`, string(b))
	})

	t.Run("accepts strings and seconds", func(t *testing.T) {
		var cfg struct {
			A Duration `json:"a"`
			B Duration `json:"b"`
		}
		require.NoError(t, json.Unmarshal([]byte(`{"a":"01:30:00","b":75}`), &cfg))
		assert.Equal(t, 90*time.Minute, cfg.A.Std())
		assert.Equal(t, 75*time.Second, cfg.B.Std())
	})

	t.Run("rejects garbage", func(t *testing.T) {
		var d Duration
		assert.Error(t, json.Unmarshal([]byte(`"soon"`), &d))
		assert.Error(t, json.Unmarshal([]byte(`true`), &d))
	})
}
