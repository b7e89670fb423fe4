package xdsroute

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	corev3 "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
	routev3 "github.com/envoyproxy/go-control-plane/envoy/config/route/v3"
	typev3 "github.com/envoyproxy/go-control-plane/envoy/type/v3"
	"google.golang.org/grpc/codes"
	"google.golang.org/protobuf/types/known/durationpb"
)

const (
	defaultRetryBackoffBase = 25 * time.Millisecond
	defaultRetryBackoffMax  = 250 * time.Millisecond

	channelIDFilterStateKey = "io.grpc.channel_id"
)

// ParseRouteConfig validates and translates a RouteConfiguration resource.
// All validation failures are accumulated and reported in a single error.
func ParseRouteConfig(rc *routev3.RouteConfiguration) (*RouteConfig, error) {
	v := &ValidationErrors{}
	out := parseRouteConfig(rc, v)
	if err := v.ErrorOrNil("errors validating RouteConfiguration resource"); err != nil {
		return nil, err
	}
	return out, nil
}

func parseRouteConfig(rc *routev3.RouteConfiguration, v *ValidationErrors) *RouteConfig {
	out := &RouteConfig{Name: rc.GetName()}
	vhosts := rc.GetVirtualHosts()
	if len(vhosts) == 0 {
		v.PushField(".virtual_hosts")
		v.AddError("no virtual hosts present")
		v.PopField()
		return out
	}
	for i, vh := range vhosts {
		v.PushField(fmt.Sprintf(".virtual_hosts[%d]", i))
		out.VirtualHosts = append(out.VirtualHosts, parseVirtualHost(vh, v))
		v.PopField()
	}
	return out
}

func parseVirtualHost(vh *routev3.VirtualHost, v *ValidationErrors) VirtualHost {
	out := VirtualHost{}
	v.PushField(".domains")
	if len(vh.GetDomains()) == 0 {
		v.AddError("must be non-empty")
	}
	for _, d := range vh.GetDomains() {
		if !validDomainPattern(d) {
			v.AddError(fmt.Sprintf("invalid domain pattern %q", d))
			continue
		}
		out.Domains = append(out.Domains, d)
	}
	v.PopField()
	if rp := vh.GetRetryPolicy(); rp != nil {
		v.PushField(".retry_policy")
		out.RetryPolicy = parseRetryPolicy(rp, v)
		v.PopField()
	}
	for i, r := range vh.GetRoutes() {
		v.PushField(fmt.Sprintf(".routes[%d]", i))
		route, ok := parseRoute(r, out.RetryPolicy, v)
		if ok {
			out.Routes = append(out.Routes, route)
		}
		v.PopField()
	}
	return out
}

// validDomainPattern accepts exact domains and patterns with a single
// leading or trailing wildcard.
func validDomainPattern(d string) bool {
	if d == "" {
		return false
	}
	switch strings.Count(d, "*") {
	case 0:
		return true
	case 1:
		return strings.HasPrefix(d, "*") || strings.HasSuffix(d, "*")
	default:
		return false
	}
}

func parseRoute(r *routev3.Route, vhostRetry *RetryPolicy, v *ValidationErrors) (Route, bool) {
	out := Route{}
	match := r.GetMatch()
	if match == nil {
		v.PushField(".match")
		v.AddError("field not present")
		v.PopField()
		return out, false
	}
	v.PushField(".match")
	out.Match = parseRouteMatch(match, v)
	v.PopField()
	switch action := r.GetAction().(type) {
	case *routev3.Route_Route:
		v.PushField(".route")
		out.Action = parseRouteAction(action.Route, vhostRetry, v)
		v.PopField()
	case *routev3.Route_NonForwardingAction:
		// Leave the action nil; the data plane treats such routes as
		// non-forwarding.
	default:
		v.AddError("no RouteAction found in route")
		return out, false
	}
	return out, true
}

func parseRouteMatch(m *routev3.RouteMatch, v *ValidationErrors) RouteMatch {
	out := RouteMatch{}
	switch ps := m.GetPathSpecifier().(type) {
	case *routev3.RouteMatch_Prefix:
		v.PushField(".prefix")
		if ps.Prefix != "" && !strings.HasPrefix(ps.Prefix, "/") {
			v.AddError("prefix does not start with a /")
		}
		out.Kind = PathPrefix
		out.Prefix = ps.Prefix
		v.PopField()
	case *routev3.RouteMatch_Path:
		v.PushField(".path")
		if !strings.HasPrefix(ps.Path, "/") {
			v.AddError("path does not start with a /")
		}
		out.Kind = PathExact
		out.Path = ps.Path
		v.PopField()
	case *routev3.RouteMatch_SafeRegex:
		v.PushField(".safe_regex")
		re, err := regexp.Compile(ps.SafeRegex.GetRegex())
		if err != nil {
			v.AddError(fmt.Sprintf("error creating regex: %v", err))
		}
		out.Kind = PathRegex
		out.Regex = re
		v.PopField()
	default:
		v.AddError("invalid path specifier")
	}
	if cs := m.GetCaseSensitive(); cs != nil && !cs.GetValue() {
		v.PushField(".case_sensitive")
		v.AddError("if set, must be set to true")
		v.PopField()
	}
	for i, hm := range m.GetHeaders() {
		v.PushField(fmt.Sprintf(".headers[%d]", i))
		parsed, ok := parseHeaderMatcher(hm, v)
		if ok {
			out.Headers = append(out.Headers, parsed)
		}
		v.PopField()
	}
	if rf := m.GetRuntimeFraction(); rf != nil {
		v.PushField(".runtime_fraction")
		out.FractionPerMillion = parseRuntimeFraction(rf, v)
		v.PopField()
	}
	return out
}

func parseHeaderMatcher(hm *routev3.HeaderMatcher, v *ValidationErrors) (HeaderMatcher, bool) {
	out := HeaderMatcher{Name: hm.GetName(), Invert: hm.GetInvertMatch()}
	switch spec := hm.GetHeaderMatchSpecifier().(type) {
	case *routev3.HeaderMatcher_ExactMatch:
		out.Kind = HeaderExact
		out.Exact = spec.ExactMatch
	case *routev3.HeaderMatcher_SafeRegexMatch:
		v.PushField(".safe_regex_match")
		re, err := regexp.Compile(spec.SafeRegexMatch.GetRegex())
		if err != nil {
			v.AddError(fmt.Sprintf("error creating regex: %v", err))
			v.PopField()
			return out, false
		}
		out.Kind = HeaderRegex
		out.Regex = re
		v.PopField()
	case *routev3.HeaderMatcher_RangeMatch:
		v.PushField(".range_match")
		if spec.RangeMatch.GetStart() > spec.RangeMatch.GetEnd() {
			v.AddError("start must be less than or equal to end")
			v.PopField()
			return out, false
		}
		out.Kind = HeaderRange
		out.Range = Int64Range{Start: spec.RangeMatch.GetStart(), End: spec.RangeMatch.GetEnd()}
		v.PopField()
	case *routev3.HeaderMatcher_PresentMatch:
		out.Kind = HeaderPresent
		out.Present = spec.PresentMatch
	case *routev3.HeaderMatcher_PrefixMatch:
		out.Kind = HeaderPrefix
		out.Prefix = spec.PrefixMatch
	case *routev3.HeaderMatcher_SuffixMatch:
		out.Kind = HeaderSuffix
		out.Suffix = spec.SuffixMatch
	case *routev3.HeaderMatcher_ContainsMatch:
		out.Kind = HeaderContains
		out.Sub = spec.ContainsMatch
	default:
		v.AddError("invalid header matcher specifier")
		return out, false
	}
	return out, true
}

func parseRuntimeFraction(rf *corev3.RuntimeFractionalPercent, v *ValidationErrors) *uint32 {
	frac := rf.GetDefaultValue()
	if frac == nil {
		return nil
	}
	n := frac.GetNumerator()
	switch frac.GetDenominator() {
	case typev3.FractionalPercent_HUNDRED:
		n *= 10000
	case typev3.FractionalPercent_TEN_THOUSAND:
		n *= 100
	case typev3.FractionalPercent_MILLION:
	default:
		v.PushField(".default_value.denominator")
		v.AddError("unknown denominator type")
		v.PopField()
		return nil
	}
	return &n
}

func parseRouteAction(ra *routev3.RouteAction, vhostRetry *RetryPolicy, v *ValidationErrors) *RouteAction {
	out := &RouteAction{}
	switch cs := ra.GetClusterSpecifier().(type) {
	case *routev3.RouteAction_Cluster:
		v.PushField(".cluster")
		if cs.Cluster == "" {
			v.AddError("must be non-empty")
		}
		out.Kind = ActionCluster
		out.Cluster = cs.Cluster
		v.PopField()
	case *routev3.RouteAction_WeightedClusters:
		v.PushField(".weighted_clusters")
		out.Kind = ActionWeightedClusters
		out.WeightedClusters = parseWeightedClusters(cs.WeightedClusters, v)
		v.PopField()
	case *routev3.RouteAction_ClusterSpecifierPlugin:
		v.PushField(".cluster_specifier_plugin")
		v.AddError("cluster specifier plugins not supported")
		v.PopField()
	default:
		v.AddError("unknown cluster specifier")
	}
	for i, hp := range ra.GetHashPolicy() {
		v.PushField(fmt.Sprintf(".hash_policy[%d]", i))
		parsed, ok := parseHashPolicy(hp, v)
		if ok {
			out.HashPolicies = append(out.HashPolicies, parsed)
		}
		v.PopField()
	}
	if msd := ra.GetMaxStreamDuration(); msd != nil {
		v.PushField(".max_stream_duration")
		// grpc_timeout_header_max is preferred over max_stream_duration
		// when both are set.
		d := msd.GetGrpcTimeoutHeaderMax()
		if d == nil {
			d = msd.GetMaxStreamDuration()
		}
		out.MaxStreamDuration = parseDuration(d, v)
		v.PopField()
	}
	if rp := ra.GetRetryPolicy(); rp != nil {
		v.PushField(".retry_policy")
		out.RetryPolicy = parseRetryPolicy(rp, v)
		v.PopField()
	} else {
		// A route without its own retry policy inherits the enclosing
		// virtual host's.
		out.RetryPolicy = vhostRetry
	}
	return out
}

func parseWeightedClusters(wc *routev3.WeightedCluster, v *ValidationErrors) []ClusterWeight {
	var out []ClusterWeight
	var total uint64
	for i, c := range wc.GetClusters() {
		v.PushField(fmt.Sprintf(".clusters[%d]", i))
		weight := c.GetWeight().GetValue()
		if weight == 0 {
			// Zero-weight entries can never be picked.
			v.PopField()
			continue
		}
		if c.GetName() == "" {
			v.PushField(".name")
			v.AddError("must be non-empty")
			v.PopField()
			v.PopField()
			continue
		}
		total += uint64(weight)
		out = append(out, ClusterWeight{Name: c.GetName(), Weight: weight})
		v.PopField()
	}
	if total == 0 {
		v.AddError("no valid clusters specified")
	} else if total > math.MaxUint32 {
		v.AddError("sum of cluster weights exceeds uint32 max")
	}
	return out
}

func parseHashPolicy(hp *routev3.RouteAction_HashPolicy, v *ValidationErrors) (HashPolicy, bool) {
	out := HashPolicy{Terminal: hp.GetTerminal()}
	switch spec := hp.GetPolicySpecifier().(type) {
	case *routev3.RouteAction_HashPolicy_Header_:
		v.PushField(".header.header_name")
		if spec.Header.GetHeaderName() == "" {
			v.AddError("must be non-empty")
			v.PopField()
			return out, false
		}
		out.Kind = HashHeader
		out.HeaderName = spec.Header.GetHeaderName()
		v.PopField()
		return out, true
	case *routev3.RouteAction_HashPolicy_FilterState_:
		if spec.FilterState.GetKey() != channelIDFilterStateKey {
			// Unsupported filter state keys are ignored rather than
			// rejected.
			return out, false
		}
		out.Kind = HashChannelID
		return out, true
	default:
		return out, false
	}
}

func parseRetryPolicy(rp *routev3.RetryPolicy, v *ValidationErrors) *RetryPolicy {
	out := &RetryPolicy{
		RetryOn:    map[codes.Code]bool{},
		NumRetries: 1,
		Backoff: RetryBackoff{
			Base: defaultRetryBackoffBase,
			Max:  defaultRetryBackoffMax,
		},
	}
	for _, cond := range strings.Split(rp.GetRetryOn(), ",") {
		switch strings.TrimSpace(cond) {
		case "cancelled":
			out.RetryOn[codes.Canceled] = true
		case "deadline-exceeded":
			out.RetryOn[codes.DeadlineExceeded] = true
		case "internal":
			out.RetryOn[codes.Internal] = true
		case "resource-exhausted":
			out.RetryOn[codes.ResourceExhausted] = true
		case "unavailable":
			out.RetryOn[codes.Unavailable] = true
		default:
			// Unsupported conditions are ignored.
		}
	}
	if nr := rp.GetNumRetries(); nr != nil {
		v.PushField(".num_retries")
		if nr.GetValue() == 0 {
			v.AddError("must be greater than 0")
		} else {
			out.NumRetries = nr.GetValue()
		}
		v.PopField()
	}
	if bo := rp.GetRetryBackOff(); bo != nil {
		v.PushField(".retry_back_off")
		if bo.GetBaseInterval() == nil {
			v.PushField(".base_interval")
			v.AddError("field not present")
			v.PopField()
		} else {
			v.PushField(".base_interval")
			out.Backoff.Base = parseDuration(bo.GetBaseInterval(), v)
			v.PopField()
		}
		if bo.GetMaxInterval() == nil {
			max := 10 * out.Backoff.Base
			if max > defaultRetryBackoffMax {
				max = defaultRetryBackoffMax
			}
			out.Backoff.Max = max
		} else {
			v.PushField(".max_interval")
			out.Backoff.Max = parseDuration(bo.GetMaxInterval(), v)
			v.PopField()
		}
		v.PopField()
	}
	return out
}

func parseDuration(d *durationpb.Duration, v *ValidationErrors) time.Duration {
	if d == nil {
		return 0
	}
	if err := d.CheckValid(); err != nil {
		v.AddError(fmt.Sprintf("invalid duration: %v", err))
		return 0
	}
	dur := d.AsDuration()
	if dur < 0 {
		v.AddError("duration must be non-negative")
		return 0
	}
	return dur
}
