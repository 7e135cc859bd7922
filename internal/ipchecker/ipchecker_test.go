package ipchecker

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsMalformedCIDR(t *testing.T) {
	_, err := New("not-a-cidr")
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	checker, err := New("192.168.1.0/24")
	require.NoError(t, err)

	assert.False(t, checker.IsTrustedSubnetEmpty())
	assert.True(t, checker.Check(net.ParseIP("192.168.1.42")))
	assert.False(t, checker.Check(net.ParseIP("10.0.0.1")))

	disabled, err := New("")
	require.NoError(t, err)
	assert.True(t, disabled.IsTrustedSubnetEmpty())
	assert.False(t, disabled.Check(net.ParseIP("192.168.1.42")))
}

func TestGetClientIP(t *testing.T) {
	checker, err := New("192.168.1.0/24")
	require.NoError(t, err)

	testCases := []struct {
		name       string
		realIP     string
		forwarded  string
		remoteAddr string
		expected   string
	}{
		{
			name:       "X-Real-IP wins",
			realIP:     "192.168.1.1",
			forwarded:  "10.0.0.1",
			remoteAddr: "10.0.0.2:1234",
			expected:   "192.168.1.1",
		},
		{
			name:       "first X-Forwarded-For entry",
			forwarded:  "192.168.1.2, 10.0.0.1",
			remoteAddr: "10.0.0.2:1234",
			expected:   "192.168.1.2",
		},
		{
			name:       "falls back to RemoteAddr",
			remoteAddr: "192.168.1.3:1234",
			expected:   "192.168.1.3",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/api/internal/stats", nil)
			request.RemoteAddr = testCase.remoteAddr
			if testCase.realIP != "" {
				request.Header.Set("X-Real-IP", testCase.realIP)
			}
			if testCase.forwarded != "" {
				request.Header.Set("X-Forwarded-For", testCase.forwarded)
			}

			clientIP, err := checker.GetClientIP(request)
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, clientIP.String())
		})
	}
}
