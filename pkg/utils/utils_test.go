package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstForwardedFor(t *testing.T) {
	assert.Equal(t, "", FirstForwardedFor(""))
	assert.Equal(t, "203.0.113.1", FirstForwardedFor("203.0.113.1"))
	assert.Equal(t, "203.0.113.1", FirstForwardedFor(" 203.0.113.1 , 10.0.0.1, 10.0.0.2"))
	assert.Equal(t, "", FirstForwardedFor(", 10.0.0.1"))
}

func TestStripPort(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"192.0.2.1:8080", "192.0.2.1"},
		{"192.0.2.1", "192.0.2.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"2001:db8::1", "2001:db8::1"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripPort(tt.in), tt.in)
	}
}

func TestParseUserAgent(t *testing.T) {
	assert.Nil(t, ParseUserAgent(""))

	info := ParseUserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	require.NotNil(t, info)
	assert.Equal(t, "Computer", info.Device)
	assert.Contains(t, info.Browser, "Chrome")
	assert.False(t, info.Bot)

	var nilInfo *UserAgentInfo
	assert.Equal(t, "unknown", nilInfo.String())
}
