package ratelimit

import (
	"strings"
)

var unlimited = EndpointConfig{}

// MatchEndpoint returns the configuration for path and method, or nil when
// the default limit applies. Exact paths win over prefixes; among prefixes
// the longest wins. GET /health is always unlimited.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	if path == "/health" && method == "GET" {
		u := unlimited
		return &u
	}

	var best *EndpointConfig
	for i := range configs {
		c := &configs[i]
		if c.Method != method {
			continue
		}
		if c.Path == path {
			return c
		}
		if strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) {
			if best == nil || len(c.Path) > len(best.Path) {
				best = c
			}
		}
	}
	return best
}
