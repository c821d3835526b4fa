package netutil

import (
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
)

func TestUnixTimeSeconds_Truncates(t *testing.T) {
	clock := quartz.NewMock(t)
	clock.Set(time.Unix(1900000000, int64(999*time.Millisecond)))

	assert.Equal(t, int64(1900000000), UnixTimeSeconds(clock))

	clock.Set(time.Unix(1900000001, 0))
	assert.Equal(t, int64(1900000001), UnixTimeSeconds(clock))
}

func TestCurrentUnixTimeSeconds(t *testing.T) {
	before := time.Now().Unix()
	got := CurrentUnixTimeSeconds()
	after := time.Now().Unix()

	assert.GreaterOrEqual(t, got, before)
	assert.LessOrEqual(t, got, after)
}
