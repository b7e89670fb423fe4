// Package xdsroute translates the xDS RouteConfiguration wire protobuf into
// a validated in-memory routing resource. The parser accumulates every
// validation failure instead of stopping at the first one, and the returned
// resource contains only constructs the data plane supports.
package xdsroute

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
)

// RouteConfig is the parsed form of an xDS RouteConfiguration resource.
type RouteConfig struct {
	Name         string
	VirtualHosts []VirtualHost
}

// VirtualHost groups routes served for a set of domains.
type VirtualHost struct {
	Domains     []string
	Routes      []Route
	RetryPolicy *RetryPolicy
}

type domainMatchKind int

const (
	domainNoMatch domainMatchKind = iota
	domainUniverse
	domainPrefix
	domainSuffix
	domainExact
)

func matchDomain(domain, host string) domainMatchKind {
	switch {
	case domain == "*":
		return domainUniverse
	case strings.HasPrefix(domain, "*"):
		if strings.HasSuffix(host, domain[1:]) {
			return domainSuffix
		}
	case strings.HasSuffix(domain, "*"):
		if strings.HasPrefix(host, domain[:len(domain)-1]) {
			return domainPrefix
		}
	case domain == host:
		return domainExact
	}
	return domainNoMatch
}

// FindBestMatchingVirtualHost selects the virtual host whose domain pattern
// best matches host. An exact domain beats a suffix wildcard, a suffix beats
// a prefix, a prefix beats the universe pattern "*". Among wildcards of the
// same kind the longest pattern wins. Matching is case-insensitive. Returns
// nil when nothing matches.
func FindBestMatchingVirtualHost(host string, vhosts []VirtualHost) *VirtualHost {
	host = strings.ToLower(host)
	var best *VirtualHost
	bestKind := domainNoMatch
	bestLen := -1
	for i := range vhosts {
		vh := &vhosts[i]
		for _, d := range vh.Domains {
			d = strings.ToLower(d)
			kind := matchDomain(d, host)
			if kind == domainNoMatch {
				continue
			}
			if kind > bestKind || (kind == bestKind && len(d) > bestLen) {
				best, bestKind, bestLen = vh, kind, len(d)
			}
		}
	}
	return best
}

// Route pairs a matcher with the action taken on a match. A nil Action
// marks a non-forwarding route.
type Route struct {
	Match  RouteMatch
	Action *RouteAction
}

// PathMatchKind selects how the request path is matched.
type PathMatchKind int

const (
	PathPrefix PathMatchKind = iota
	PathExact
	PathRegex
)

// RouteMatch describes the request predicate of a route.
type RouteMatch struct {
	Kind   PathMatchKind
	Prefix string
	Path   string
	Regex  *regexp.Regexp

	Headers []HeaderMatcher

	// FractionPerMillion, if non-nil, routes only the given fraction of
	// matching requests.
	FractionPerMillion *uint32
}

func (m RouteMatch) String() string {
	switch m.Kind {
	case PathExact:
		return fmt.Sprintf("path:%s", m.Path)
	case PathRegex:
		return fmt.Sprintf("regex:%s", m.Regex)
	default:
		return fmt.Sprintf("prefix:%s", m.Prefix)
	}
}

// HeaderMatchKind selects how a header value is matched.
type HeaderMatchKind int

const (
	HeaderExact HeaderMatchKind = iota
	HeaderRegex
	HeaderRange
	HeaderPresent
	HeaderPrefix
	HeaderSuffix
	HeaderContains
)

// Int64Range is a half-open range [Start, End).
type Int64Range struct {
	Start int64
	End   int64
}

// HeaderMatcher describes a single header predicate.
type HeaderMatcher struct {
	Name    string
	Kind    HeaderMatchKind
	Exact   string
	Regex   *regexp.Regexp
	Range   Int64Range
	Present bool
	Prefix  string
	Suffix  string
	Sub     string
	Invert  bool
}

// RouteActionKind selects the cluster specifier of a route action.
type RouteActionKind int

const (
	ActionCluster RouteActionKind = iota
	ActionWeightedClusters
)

// ClusterWeight is one entry of a weighted-clusters action.
type ClusterWeight struct {
	Name   string
	Weight uint32
}

// HashPolicyKind selects the source of a hash policy.
type HashPolicyKind int

const (
	HashHeader HashPolicyKind = iota
	HashChannelID
)

// HashPolicy describes one entry of a route's hash policy list.
type HashPolicy struct {
	Kind       HashPolicyKind
	HeaderName string
	Terminal   bool
}

// RetryBackoff holds the exponential backoff parameters of a retry policy.
type RetryBackoff struct {
	Base time.Duration
	Max  time.Duration
}

// RetryPolicy is the parsed retry configuration of a virtual host or route.
type RetryPolicy struct {
	RetryOn    map[codes.Code]bool
	NumRetries uint32
	Backoff    RetryBackoff
}

// RouteAction describes what to do with a matched request.
type RouteAction struct {
	Kind             RouteActionKind
	Cluster          string
	WeightedClusters []ClusterWeight
	HashPolicies     []HashPolicy

	// MaxStreamDuration of zero means no limit was configured.
	MaxStreamDuration time.Duration

	// RetryPolicy is the route's own policy, or the enclosing virtual
	// host's when the route does not configure one.
	RetryPolicy *RetryPolicy
}
