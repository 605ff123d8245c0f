package ratelimit

import (
	"fmt"
	"net/http"
	"time"
)

// Policy is the quota for one (method, route) pair. Path is the gin route template.
type Policy struct {
	Endpoint    string
	Method      string
	Path        string
	MaxRequests int
	Window      time.Duration
}

// Policies is an immutable lookup table built once at startup.
type Policies struct {
	byRoute map[string]Policy
}

func NewPolicies(list ...Policy) (*Policies, error) {
	p := &Policies{byRoute: make(map[string]Policy, len(list))}
	for _, pol := range list {
		if pol.Endpoint == "" || pol.Method == "" || pol.Path == "" {
			return nil, fmt.Errorf("ratelimit: policy %+v is incomplete", pol)
		}
		if pol.MaxRequests <= 0 || pol.Window <= 0 {
			return nil, fmt.Errorf("ratelimit: policy %s needs positive max requests and window", pol.Endpoint)
		}
		k := routeKey(pol.Method, pol.Path)
		if _, dup := p.byRoute[k]; dup {
			return nil, fmt.Errorf("ratelimit: duplicate policy for %s", k)
		}
		p.byRoute[k] = pol
	}
	return p, nil
}

// Lookup matches method and path exactly. Unknown pairs are not limited.
func (p *Policies) Lookup(method, path string) (Policy, bool) {
	if p == nil || path == "" {
		return Policy{}, false
	}
	pol, ok := p.byRoute[routeKey(method, path)]
	return pol, ok
}

func (p *Policies) Len() int { return len(p.byRoute) }

func routeKey(method, path string) string {
	return method + " " + path
}

// DefaultPolicies protects the credential endpoints and image upload.
func DefaultPolicies() []Policy {
	const window = 60 * time.Second
	return []Policy{
		{Endpoint: "register", Method: http.MethodPost, Path: "/auth/register", MaxRequests: 4, Window: window},
		{Endpoint: "login", Method: http.MethodPost, Path: "/auth/login", MaxRequests: 4, Window: window},
		{Endpoint: "logout", Method: http.MethodPost, Path: "/auth/logout", MaxRequests: 4, Window: window},
		{Endpoint: "refresh-token", Method: http.MethodPost, Path: "/auth/refresh-token", MaxRequests: 4, Window: window},
		{Endpoint: "upload-image", Method: http.MethodPost, Path: "/users/profile/image", MaxRequests: 2, Window: window},
	}
}
