package netutil

import (
	"regexp"
	"strings"
)

var (
	ipv4Pattern = regexp.MustCompile(
		`^(25[0-5]|2[0-4]\d|[0-1]?\d?\d)(\.(25[0-5]|2[0-4]\d|[0-1]?\d?\d)){3}$`)
	ipv6StdPattern = regexp.MustCompile(
		`^[0-9a-fA-F]{1,4}(:[0-9a-fA-F]{1,4}){7}$`)
	ipv6CompressedPattern = regexp.MustCompile(
		`^(([0-9A-Fa-f]{1,4}(:[0-9A-Fa-f]{1,4}){0,5})?)::(([0-9A-Fa-f]{1,4}(:[0-9A-Fa-f]{1,4}){0,5})?)$`)
)

// maxIPv6Colons bounds the colons of a compressed literal: "::" stands for
// at least one group, so at most 7 separators may appear.
const maxIPv6Colons = 7

// IPBytesFromInt splits ip into bytes, low-order byte first, whatever the
// host byte order. 0x0100007F yields 127.0.0.1.
func IPBytesFromInt(ip uint32) [4]byte {
	return [4]byte{
		byte(ip & 0xFF),
		byte((ip >> 8) & 0xFF),
		byte((ip >> 16) & 0xFF),
		byte((ip >> 24) & 0xFF),
	}
}

// IsIPv4Literal reports whether s is a dotted-quad IPv4 literal.
// Purely syntactic; no resolution happens.
func IsIPv4Literal(s string) bool {
	return ipv4Pattern.MatchString(s)
}

// IsIPv6Literal reports whether s is an IPv6 literal in full or "::"
// compressed hex form. Zones and embedded IPv4 tails are rejected.
func IsIPv6Literal(s string) bool {
	if ipv6StdPattern.MatchString(s) {
		return true
	}
	if strings.Count(s, ":") > maxIPv6Colons {
		return false
	}
	return ipv6CompressedPattern.MatchString(s)
}
