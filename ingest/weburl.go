// Package ingest imports external reference material into a project's
// refs/ directory. Web fetches go through SSRF validation including
// private IP detection and DNS rebinding protection.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/url"
	"strings"
)

const maxSlugLen = 80

// reservedNets are private/reserved ranges not covered by the net.IP
// classification helpers, parsed once at package load.
var reservedNets []*net.IPNet

func init() {
	for _, cidr := range []string{
		"100.64.0.0/10", // carrier-grade NAT
		"fc00::/7",      // IPv6 unique local
		"fe80::/10",     // IPv6 link-local
	} {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic("bad reserved CIDR " + cidr + ": " + err.Error())
		}
		reservedNets = append(reservedNets, network)
	}
}

// ValidateURL rejects URLs that could reach internal infrastructure.
// Only HTTPS is accepted; localhost, *.local / *.internal names, and
// literal private IPs are refused.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "https" {
		return fmt.Errorf("only HTTPS URLs are allowed")
	}

	host := strings.ToLower(parsed.Hostname())
	switch host {
	case "", "localhost", "127.0.0.1", "::1":
		return fmt.Errorf("localhost URLs are not allowed")
	}
	if strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".internal") {
		return fmt.Errorf("local domain URLs are not allowed")
	}
	if ip := net.ParseIP(host); ip != nil && IsPrivateIP(ip) {
		return fmt.Errorf("private IP addresses are not allowed")
	}
	return nil
}

// IsPrivateIP reports whether an address is private or reserved,
// including IPv4-mapped IPv6 forms (::ffff:x.x.x.x).
func IsPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}
	if v4 := ip.To4(); v4 != nil {
		// The mapped form may classify differently than the IPv4 form.
		if v4.IsLoopback() || v4.IsPrivate() || v4.IsLinkLocalUnicast() {
			return true
		}
		ip = v4
	}
	for _, network := range reservedNets {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// RefSlug derives a file-friendly slug for a reference from its URL,
// e.g. "https://docs.example.com/api" -> "docs-example-com-api".
// Unparseable URLs fall back to a content hash so every source still
// gets a stable name.
func RefSlug(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		sum := sha256.Sum256([]byte(rawURL))
		return hex.EncodeToString(sum[:8])
	}

	parts := []string{strings.ReplaceAll(parsed.Hostname(), ".", "-")}
	if trimmed := strings.Trim(parsed.Path, "/"); trimmed != "" {
		parts = append(parts, strings.ReplaceAll(trimmed, "/", "-"))
	}

	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '-'
		}
	}, strings.ToLower(strings.Join(parts, "-")))

	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	return slug
}

// ExtractDomain returns the hostname of a URL, or "" when it does not
// parse.
func ExtractDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}
