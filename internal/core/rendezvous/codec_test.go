package rendezvous

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-natpeer/pkg/types"
)

func TestDecoder_Errors(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"empty stream", "", "connection closed before payload"},
		{"whitespace only", "  \n ", "connection closed before payload"},
		{"truncated", `{"isn":`, "truncated payload"},
		{"oversized value", `{"isn":1,"ts_val":2,"pad":"xxxxxxxx"}`, "payload exceeds 16 bytes"},
		{"budget spent on padding", strings.Repeat(" ", 32) + `{}`, "payload exceeds 16 bytes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var v map[string]any
			err := NewDecoder(strings.NewReader(tc.input), 16).Decode("read", &v)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrProtocol)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestDecoder_BudgetPerValue(t *testing.T) {
	// 每个值单独计算上限
	dec := NewDecoder(strings.NewReader(`{"isn":1}{"isn":2}{"isn":3}`), 12)
	for want := 1; want <= 3; want++ {
		var p struct {
			ISN int `json:"isn"`
		}
		require.NoError(t, dec.Decode("read", &p))
		assert.Equal(t, want, p.ISN)
	}
}
