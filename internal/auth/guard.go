package auth

import (
	"net/url"
	"path"
	"strings"
)

const AccessDeniedError = "access-denied"

// GuardRule protects a path prefix and every path below it.
type GuardRule struct {
	Prefix string
	Roles  []Role
}

func (r GuardRule) permits(role Role) bool {
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

type Decision struct {
	Allow    bool
	Redirect string
}

// Guard decides per request whether a path may be served for the given claims.
// It holds no per-request state.
type Guard struct {
	rules   []GuardRule
	landing string
}

func NewGuard(landing string, rules ...GuardRule) *Guard {
	normalized := make([]GuardRule, 0, len(rules))
	for _, r := range rules {
		r.Prefix = normalizePath(r.Prefix)
		normalized = append(normalized, r)
	}
	if landing == "" {
		landing = "/"
	}
	return &Guard{rules: normalized, landing: landing}
}

// Rule returns the rule covering p, if any.
func (g *Guard) Rule(p string) (GuardRule, bool) {
	p = normalizePath(p)
	for _, r := range g.rules {
		if p == r.Prefix || strings.HasPrefix(p, r.Prefix+"/") || r.Prefix == "/" {
			return r, true
		}
	}
	return GuardRule{}, false
}

// Decide treats nil claims as "no session". Unprotected paths are always allowed.
func (g *Guard) Decide(p string, claims *Claims) Decision {
	rule, protected := g.Rule(p)
	if !protected {
		return Decision{Allow: true}
	}
	if claims == nil || !rule.permits(claims.Role) {
		return Decision{Allow: false, Redirect: g.deniedURL()}
	}
	return Decision{Allow: true}
}

func (g *Guard) deniedURL() string {
	q := url.Values{}
	q.Set("error", AccessDeniedError)
	return g.landing + "?" + q.Encode()
}

// normalizePath folds case and dot segments so "/ADMIN/" or "/x/../admin"
// cannot slip past a prefix match.
func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.ToLower(path.Clean(p))
}
