package duration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormat_Buckets(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Nanosecond, "500ns"},
		{1500 * time.Nanosecond, "1.50μs"},
		{2500 * time.Microsecond, "2.50ms"},
		{3500 * time.Millisecond, "3.50s"},
		{90 * time.Second, "1.50min"},
		{90 * time.Minute, "1.50h"},
	}

	for _, c := range cases {
		require.Equal(t, c.want, Format(c.d))
	}
}
