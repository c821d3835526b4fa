// Package netutil holds stateless helpers for address inspection and
// byte/time conversion.
package netutil
