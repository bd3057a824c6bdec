package portal

import (
	"fmt"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestLoginThrottleBackoff(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC)}
	th := newLoginThrottle(clock.now)

	for i := 0; i < loginMaxFailures-1; i++ {
		th.recordFailure("10.0.0.1")
	}
	blocked, _ := th.check("10.0.0.1")
	assert.False(t, blocked)

	th.recordFailure("10.0.0.1")
	blocked, wait := th.check("10.0.0.1")
	assert.True(t, blocked)
	assert.Equal(t, loginBaseLockout, wait)

	th.recordFailure("10.0.0.1")
	_, wait = th.check("10.0.0.1")
	assert.Equal(t, 2*loginBaseLockout, wait)

	for i := 0; i < 10; i++ {
		th.recordFailure("10.0.0.1")
	}
	_, wait = th.check("10.0.0.1")
	assert.Equal(t, loginMaxLockout, wait)

	blocked, _ = th.check("10.0.0.2")
	assert.False(t, blocked, "other sources are unaffected")

	clock.t = clock.t.Add(loginMaxLockout)
	blocked, _ = th.check("10.0.0.1")
	assert.False(t, blocked)
}

func TestLoginThrottleSuccessResets(t *testing.T) {
	th := newLoginThrottle(nil)
	for i := 0; i < loginMaxFailures; i++ {
		th.recordFailure("10.0.0.1")
	}
	th.recordSuccess("10.0.0.1")
	blocked, _ := th.check("10.0.0.1")
	assert.False(t, blocked)
}

func TestLoginThrottleSweep(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	th := newLoginThrottle(clock.now)
	th.recordFailure("10.0.0.1")
	clock.t = clock.t.Add(30 * time.Minute)
	th.recordFailure("10.0.0.2")

	clock.t = clock.t.Add(45 * time.Minute)
	assert.Equal(t, 1, th.sweep())
	assert.Len(t, th.attempts, 1)
}

func TestRepeatedFailedLoginsAreThrottled(t *testing.T) {
	h := newHarness(t)
	b := h.browser(t)

	bad := url.Values{"username": {"alice"}, "password": {"wrong"}}
	for i := 0; i < loginMaxFailures; i++ {
		assert.Equal(t, http.StatusSeeOther, b.post("/login", bad).status)
	}
	resp := b.post("/login", url.Values{"username": {"alice"}, "password": {"hunter22"}})
	assert.Equal(t, http.StatusTooManyRequests, resp.status)
	assert.Equal(t, "60", resp.header.Get("Retry-After"))

	assert.Equal(t, http.StatusOK, b.get("/projects").status, "navigation is not throttled")
}

func TestClientIP(t *testing.T) {
	proxies := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
	req := func(remote string, headers ...string) *http.Request {
		r := &http.Request{RemoteAddr: remote, Header: http.Header{}}
		for i := 0; i+1 < len(headers); i += 2 {
			r.Header.Add(headers[i], headers[i+1])
		}
		return r
	}

	tests := map[string]struct {
		r       *http.Request
		trusted []netip.Prefix
		want    string
	}{
		"PeerOnly":              {req("192.0.2.7:51234"), nil, "192.0.2.7"},
		"NoPort":                {req("192.0.2.7"), nil, "192.0.2.7"},
		"IPv6Peer":              {req("[2001:db8::1]:443"), nil, "2001:db8::1"},
		"HeadersIgnored":        {req("192.0.2.7:1", "X-Forwarded-For", "198.51.100.1", "X-Real-IP", "198.51.100.2"), nil, "192.0.2.7"},
		"UntrustedPeerIgnored":  {req("192.0.2.7:1", "X-Forwarded-For", "198.51.100.1"), proxies, "192.0.2.7"},
		"TrustedPeerForwarded":  {req("10.0.0.5:1", "X-Forwarded-For", "198.51.100.1"), proxies, "198.51.100.1"},
		"RightmostUntrustedHop": {req("10.0.0.5:1", "X-Forwarded-For", "203.0.113.9, 198.51.100.1, 10.0.0.4"), proxies, "198.51.100.1"},
		"RealIPFallback":        {req("10.0.0.5:1", "X-Real-IP", "198.51.100.2"), proxies, "198.51.100.2"},
		"GarbageHeader":         {req("10.0.0.5:1", "X-Forwarded-For", "not-an-ip"), proxies, "10.0.0.5"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, clientIP(tt.r, tt.trusted))
		})
	}
}

func TestForwardedForCannotDodgeThrottle(t *testing.T) {
	h := newHarness(t)
	b := h.browser(t)

	statuses := map[int]int{}
	for i := 0; i < loginMaxFailures+5; i++ {
		req, err := http.NewRequest(http.MethodPost, b.base+"/login", strings.NewReader("username=alice&password=wrong"))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		req.Header.Set("X-Real-IP", fmt.Sprintf("203.0.113.%d", i+1))
		statuses[b.do(req).status]++
	}
	assert.Equal(t, map[int]int{http.StatusSeeOther: loginMaxFailures, http.StatusTooManyRequests: 5}, statuses)
}

func TestTrustedProxyForwardsClientAddress(t *testing.T) {
	h := newHarness(t, func(cfg *Config) {
		cfg.TrustedProxies = []netip.Prefix{netip.MustParsePrefix("127.0.0.0/8"), netip.MustParsePrefix("::1/128")}
	})
	b := h.browser(t)

	post := func(client string) int {
		req, err := http.NewRequest(http.MethodPost, b.base+"/login", strings.NewReader("username=alice&password=wrong"))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Forwarded-For", client)
		return b.do(req).status
	}
	for i := 0; i < loginMaxFailures; i++ {
		assert.Equal(t, http.StatusSeeOther, post("198.51.100.1"))
	}
	assert.Equal(t, http.StatusTooManyRequests, post("198.51.100.1"))
	assert.Equal(t, http.StatusSeeOther, post("198.51.100.2"), "other clients behind the proxy are unaffected")
}
