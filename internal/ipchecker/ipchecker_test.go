package ipchecker

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsMalformedCIDR(t *testing.T) {
	_, err := New("10.0.0.0/99")
	assert.Error(t, err)
}

func TestCheckRequest(t *testing.T) {
	testCases := []struct {
		name          string
		trustedSubnet string
		xRealIP       string
		xForwardedFor string
		remoteAddr    string
		expected      bool
	}{
		{
			name:          "no_subnet_configured_trusts_nobody",
			trustedSubnet: "",
			xRealIP:       "10.1.2.3",
			expected:      false,
		},
		{
			name:          "x_real_ip_inside_subnet",
			trustedSubnet: "10.0.0.0/8",
			xRealIP:       "10.1.2.3",
			expected:      true,
		},
		{
			name:          "x_real_ip_outside_subnet",
			trustedSubnet: "10.0.0.0/8",
			xRealIP:       "192.168.1.5",
			expected:      false,
		},
		{
			name:          "x_real_ip_takes_precedence_over_x_forwarded_for",
			trustedSubnet: "10.0.0.0/8",
			xRealIP:       "192.168.1.5",
			xForwardedFor: "10.1.2.3",
			expected:      false,
		},
		{
			name:          "first_x_forwarded_for_entry_is_used",
			trustedSubnet: "10.0.0.0/8",
			xForwardedFor: "10.1.2.3, 192.168.1.5",
			expected:      true,
		},
		{
			name:          "falls_back_to_remote_addr",
			trustedSubnet: "10.0.0.0/8",
			remoteAddr:    "10.1.2.3:54321",
			expected:      true,
		},
		{
			name:          "remote_addr_outside_subnet",
			trustedSubnet: "10.0.0.0/8",
			remoteAddr:    "192.168.1.5:54321",
			expected:      false,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			checker, err := New(testCase.trustedSubnet)
			require.NoError(t, err)

			request := httptest.NewRequest("GET", "/users", nil)
			if testCase.xRealIP != "" {
				request.Header.Set("X-Real-IP", testCase.xRealIP)
			}
			if testCase.xForwardedFor != "" {
				request.Header.Set("X-Forwarded-For", testCase.xForwardedFor)
			}
			if testCase.remoteAddr != "" {
				request.RemoteAddr = testCase.remoteAddr
			}

			assert.Equal(t, testCase.expected, checker.CheckRequest(request))
		})
	}
}
