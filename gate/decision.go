package gate

import (
	"fmt"
	"net/http"
	"strings"
)

// Decision is the outcome of gating a request that is not on an open path.
type Decision int

const (
	// Redirect sends the caller to the login page.
	Redirect Decision = iota
	// Forward hands the request to the downstream handler unchanged.
	Forward
	// ServeApp answers the root path with the embedded application page.
	ServeApp
)

func (d Decision) String() string {
	switch d {
	case Redirect:
		return "redirect"
	case Forward:
		return "forward"
	case ServeApp:
		return "serve_app"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// RootMode selects what an allowed request for "/" receives.
type RootMode string

const (
	// RootForward forwards "/" to the downstream like any other path.
	RootForward RootMode = "forward"
	// RootApp serves the embedded application page at "/".
	RootApp RootMode = "app"
)

const bearerPrefix = "Bearer "

// Decide gates a request whose path is not in the open path set. Rules are
// evaluated in order and the first match wins:
//
//  1. no API key configured: allow
//  2. Authorization header starting with "Bearer ": forward
//  3. session cookie equal to the derived token: allow
//  4. otherwise: redirect to the login page
//
// "Allow" means Forward, except for the root path in RootApp mode, which
// yields ServeApp. Bearer requests are always forwarded because the
// downstream validates those tokens itself.
func Decide(secret *Secret, mode RootMode, r *http.Request) Decision {
	if !secret.Enabled() {
		return allowed(mode, r)
	}
	if strings.HasPrefix(r.Header.Get("Authorization"), bearerPrefix) {
		return Forward
	}
	if hasValidCookie(secret, r) {
		return allowed(mode, r)
	}
	return Redirect
}

func allowed(mode RootMode, r *http.Request) Decision {
	if mode == RootApp && r.URL.Path == rootPath {
		return ServeApp
	}
	return Forward
}
