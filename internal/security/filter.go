package security

import (
	"net/netip"
	"net/url"
	"strconv"
	"strings"
)

// defaultPort is assumed when the URL carries no explicit port.
const defaultPort = 80

// Reason explains a Decision.
type Reason string

const (
	ReasonEmpty          Reason = "empty"
	ReasonMalformed      Reason = "malformed"
	ReasonScheme         Reason = "scheme"
	ReasonNoHost         Reason = "no_host"
	ReasonNonLocalHost   Reason = "non_local_host"
	ReasonPortNotAllowed Reason = "port_not_allowed"
	ReasonAllowed        Reason = "allowed"
)

// Decision is the outcome of evaluating one navigation URL.
type Decision struct {
	Allowed bool
	Reason  Reason
	// Host and Port are populated once the URL has been parsed far enough
	// to extract them.
	Host string
	Port uint16
}

// Filter evaluates navigation URLs against a Policy.
type Filter struct {
	policy Policy
}

// NewFilter returns a Filter bound to a private copy of policy.
func NewFilter(policy Policy) *Filter {
	return &Filter{policy: policy.Clone()}
}

// Policy returns a copy of the policy the filter enforces.
func (f *Filter) Policy() Policy {
	return f.policy.Clone()
}

// IsAllowed reports whether a navigation to rawURL may proceed.
func (f *Filter) IsAllowed(rawURL string) bool {
	return evaluate(&f.policy, rawURL).Allowed
}

// Evaluate returns the full decision for rawURL.
func (f *Filter) Evaluate(rawURL string) Decision {
	return evaluate(&f.policy, rawURL)
}

// FilterURLs returns the allowed subset of urls, preserving input order.
func (f *Filter) FilterURLs(urls []string) []string {
	allowed := make([]string, 0, len(urls))
	for _, u := range urls {
		if f.IsAllowed(u) {
			allowed = append(allowed, u)
		}
	}
	return allowed
}

// IsAllowed evaluates rawURL against policy without constructing a Filter.
func IsAllowed(policy Policy, rawURL string) bool {
	return evaluate(&policy, rawURL).Allowed
}

// evaluate applies the checks in order and stops at the first failure.
// An empty URL is a same-page navigation and always passes.
func evaluate(p *Policy, rawURL string) Decision {
	if rawURL == "" {
		return Decision{Allowed: true, Reason: ReasonEmpty}
	}

	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() {
		return Decision{Reason: ReasonMalformed}
	}

	// url.Parse lowercases the scheme.
	if u.Scheme != "http" && u.Scheme != "https" {
		return Decision{Reason: ReasonScheme}
	}

	host := u.Hostname()
	if host == "" {
		return Decision{Reason: ReasonNoHost}
	}

	if !isLocalHost(p, host) {
		return Decision{Reason: ReasonNonLocalHost, Host: host}
	}

	port := uint16(defaultPort)
	if raw := u.Port(); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 16)
		if err != nil || n == 0 {
			return Decision{Reason: ReasonMalformed, Host: host}
		}
		port = uint16(n)
	}

	d := Decision{Host: host, Port: port}
	if !isAllowedPort(p, port) {
		d.Reason = ReasonPortNotAllowed
		return d
	}

	d.Allowed = true
	d.Reason = ReasonAllowed
	return d
}

// isLocalHost matches literal host forms only; names are never resolved.
func isLocalHost(p *Policy, host string) bool {
	if p.AllowLocalhost && strings.EqualFold(host, "localhost") {
		return true
	}

	if !p.AllowLoopback {
		return false
	}
	if host == "127.0.0.1" || host == "::1" {
		return true
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	// IsLoopback unmaps ::ffff:127.x and ignores zones; only 127.0.0.0/8 and a bare ::1 count.
	if addr.Zone() != "" {
		return false
	}
	return (addr.Is4() && addr.IsLoopback()) || addr == netip.IPv6Loopback()
}

func isAllowedPort(p *Policy, port uint16) bool {
	if !p.StrictMode {
		return true
	}
	return p.AllowedPorts.Contains(port)
}
