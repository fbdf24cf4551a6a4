package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	authkit "github.com/edusuite/authkit"
)

// Rule binds one route pattern to an allowed-role set. A pattern ending
// in "/**" matches the whole subtree; anything else matches exactly.
// An empty Method matches every method; an empty role set means the
// route only requires authentication, not a specific role.
type Rule struct {
	Method  string
	Pattern string
	Roles   []authkit.Role
}

// Policy is the static per-route rule table checked once per request.
// The first matching rule wins; requests matching no rule pass through
// untouched (public routes stay public by omission).
type Policy struct {
	rules []compiledRule
}

type compiledRule struct {
	method  string
	prefix  string
	exact   string
	allowed map[authkit.Role]struct{}
}

// NewPolicy compiles rules into a Policy.
func NewPolicy(rules ...Rule) *Policy {
	p := &Policy{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		cr := compiledRule{method: strings.ToUpper(r.Method)}
		if suffix, ok := strings.CutSuffix(r.Pattern, "/**"); ok {
			cr.prefix = suffix + "/"
		} else {
			cr.exact = r.Pattern
		}
		if len(r.Roles) > 0 {
			cr.allowed = make(map[authkit.Role]struct{}, len(r.Roles))
			for _, role := range r.Roles {
				cr.allowed[role] = struct{}{}
			}
		}
		p.rules = append(p.rules, cr)
	}
	return p
}

// Middleware evaluates the rule table against each request. When the
// request is routed through gorilla/mux the registered path template is
// matched instead of the raw URL, so path variables cannot dodge a
// rule.
func (p *Policy) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rule, ok := p.match(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthenticated", http.StatusUnauthorized)
				return
			}
			if rule.allowed != nil {
				if _, ok := rule.allowed[principal.Role]; !ok {
					http.Error(w, "forbidden", http.StatusForbidden)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (p *Policy) match(r *http.Request) (compiledRule, bool) {
	path := r.URL.Path
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil && tpl != "" {
			path = tpl
		}
	}

	for _, rule := range p.rules {
		if rule.method != "" && rule.method != r.Method {
			continue
		}
		if rule.exact != "" && rule.exact != path {
			continue
		}
		if rule.prefix != "" && !strings.HasPrefix(path, rule.prefix) && path != strings.TrimSuffix(rule.prefix, "/") {
			continue
		}
		return rule, true
	}
	return compiledRule{}, false
}
