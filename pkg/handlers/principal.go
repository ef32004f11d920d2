package handlers

import "net/http"

// PrincipalHeader carries the acting user's identity, forwarded by the
// authenticating front proxy.
const PrincipalHeader = "X-User-Id"

// DefaultPrincipal is used for unauthenticated callers such as startup jobs.
const DefaultPrincipal = "system"

// Principal extracts the acting user from the request. Authentication itself
// is a front-proxy concern; the service trusts the forwarded identity.
func Principal(r *http.Request) string {
	if v := r.Header.Get(PrincipalHeader); v != "" {
		return v
	}
	return DefaultPrincipal
}
