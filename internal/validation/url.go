// Package validation checks user input before it is stored or sent.
//
// ValidateBaseURL guards the system URL saved by 'plenty auth login'. The
// stored password is sent to that host, so loopback, private and cloud
// metadata addresses are refused. PLENTY_ALLOW_PRIVATE (any value accepted
// by strconv.ParseBool) or SetAllowPrivate(true) admits private and loopback
// hosts for systems behind a VPN or for local testing. Metadata endpoints
// stay blocked.
package validation

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// EnvAllowPrivate admits private and loopback base URLs.
const EnvAllowPrivate = "PLENTY_ALLOW_PRIVATE"

var allowPrivate atomic.Bool

var privateNetworks []*net.IPNet

// resolveTimeout bounds the DNS lookup of a base URL host.
var resolveTimeout = 5 * time.Second

func init() {
	v, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv(EnvAllowPrivate)))
	allowPrivate.Store(v)

	for _, cidr := range []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"100.64.0.0/10",
		"169.254.0.0/16",
		"192.0.0.0/24",
		"192.0.2.0/24",
		"198.18.0.0/15",
		"198.51.100.0/24",
		"203.0.113.0/24",
		"240.0.0.0/4",
		"fc00::/7",
		"fe80::/10",
		"ff00::/8",
		"::1/128",
		"::/128",
		"100::/64",
		"2001:db8::/32",
	} {
		if _, network, err := net.ParseCIDR(cidr); err == nil {
			privateNetworks = append(privateNetworks, network)
		}
	}
}

// SetAllowPrivate admits or refuses private and loopback hosts.
func SetAllowPrivate(enabled bool) {
	allowPrivate.Store(enabled)
}

// AllowPrivateEnabled reports whether private hosts are admitted.
func AllowPrivateEnabled() bool {
	return allowPrivate.Load()
}

// NormalizeBaseURL trims whitespace and trailing slashes and prefixes
// https:// when no scheme is given.
func NormalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw != "" && !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	return strings.TrimRight(raw, "/")
}

// ValidateBaseURL checks the URL of a PlentyMarkets system. It must be an
// http(s) URL without query or fragment whose host is neither a metadata
// endpoint nor, unless allowed, a loopback or private address. Hosts that
// do not resolve are accepted.
func ValidateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	if len(raw) > MaxURLLength {
		return fmt.Errorf("base URL exceeds maximum length of %d characters", MaxURLLength)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base URL scheme %q: only http and https are allowed", u.Scheme)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("base URL must not carry a query or fragment")
	}
	if strings.HasPrefix(strings.TrimSuffix(u.Path, "/"), "/rest") {
		return fmt.Errorf("base URL must not include the /rest path")
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("base URL must contain a hostname")
	}
	if isCloudMetadata(host) {
		return fmt.Errorf("cloud metadata endpoints are not allowed")
	}
	if !allowPrivate.Load() && isLocalhost(host) {
		return fmt.Errorf("localhost URLs are not allowed (set %s=1 to permit)", EnvAllowPrivate)
	}
	if ip := net.ParseIP(host); ip != nil {
		return validateIP(ip)
	}
	return validateHost(host)
}

func isLocalhost(host string) bool {
	host = strings.ToLower(host)
	return slices.Contains([]string{"localhost", "127.0.0.1", "::1", "0.0.0.0", "::"}, host) ||
		strings.HasSuffix(host, ".localhost")
}

func isCloudMetadata(host string) bool {
	host = strings.ToLower(host)
	return slices.Contains([]string{
		"169.254.169.254",
		"metadata.google.internal",
		"metadata",
		"instance-data",
		"fd00:ec2::254",
	}, host) || strings.HasSuffix(host, ".metadata.google.internal")
}

func validateIP(ip net.IP) error {
	switch {
	case ip.String() == "169.254.169.254":
		return fmt.Errorf("cloud metadata IP address is not allowed")
	case ip.IsUnspecified():
		return fmt.Errorf("unspecified IP addresses are not allowed")
	case ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast():
		return fmt.Errorf("link-local IP addresses are not allowed")
	case allowPrivate.Load():
		return nil
	case ip.IsLoopback():
		return fmt.Errorf("loopback IP addresses are not allowed (set %s=1 to permit)", EnvAllowPrivate)
	case isPrivateIP(ip):
		return fmt.Errorf("private IP addresses are not allowed (set %s=1 to permit)", EnvAllowPrivate)
	}
	return nil
}

func isPrivateIP(ip net.IP) bool {
	for _, network := range privateNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func validateHost(host string) error {
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
	if err != nil {
		return nil
	}
	for _, ip := range ips {
		if err := validateIP(ip); err != nil {
			return fmt.Errorf("host %q resolves to forbidden IP %s: %w", host, ip, err)
		}
	}
	return nil
}
