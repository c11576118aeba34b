package authheaders

import (
	"fmt"
	"net/url"
	"strings"
)

// SDKInfo identifies the client library issuing a request, surfaced to the
// facilitator as the Correlation-Context header for support and analytics.
type SDKInfo struct {
	SDKVersion    string
	SDKLanguage   string
	Source        string
	SourceVersion string
}

// CorrelationContext renders SDKInfo as a Correlation-Context header value:
// comma-separated, URL-encoded key=value pairs, in a fixed field order.
func CorrelationContext(info SDKInfo) string {
	pairs := []string{
		"sdk_version=" + url.QueryEscape(info.SDKVersion),
		"sdk_language=" + url.QueryEscape(info.SDKLanguage),
		"source=" + url.QueryEscape(info.Source),
		"source_version=" + url.QueryEscape(info.SourceVersion),
	}
	return strings.Join(pairs, ",")
}

// ParseCorrelationContext is the inverse of CorrelationContext, used in
// tests and by any component that wants to inspect what a client sent.
func ParseCorrelationContext(header string) (SDKInfo, error) {
	var info SDKInfo
	for _, pair := range strings.Split(header, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return SDKInfo{}, fmt.Errorf("authheaders: malformed correlation pair %q", pair)
		}
		value, err := url.QueryUnescape(kv[1])
		if err != nil {
			return SDKInfo{}, fmt.Errorf("authheaders: malformed correlation value %q: %w", kv[1], err)
		}
		switch kv[0] {
		case "sdk_version":
			info.SDKVersion = value
		case "sdk_language":
			info.SDKLanguage = value
		case "source":
			info.Source = value
		case "source_version":
			info.SourceVersion = value
		}
	}
	return info, nil
}
