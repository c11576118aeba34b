package authheaders

import "fmt"

// Endpoint names one facilitator route a HeaderFactory can mint headers for.
type Endpoint string

const (
	EndpointVerify Endpoint = "verify"
	EndpointSettle Endpoint = "settle"
)

// HeaderFactory mints the Authorization and Correlation-Context headers one
// outbound facilitator call needs, keyed by endpoint class (§4.7). A
// facilitator deployed standalone has no use for this interface; it exists
// for clients of a hosted facilitator sitting behind an API key.
type HeaderFactory interface {
	Headers(endpoint Endpoint) (map[string]string, error)
}

// StaticBearer is the reference HeaderFactory: one short-lived JWT per
// endpoint, signed HS256 with a fixed key ID and secret, plus a static
// Correlation-Context describing the calling SDK.
type StaticBearer struct {
	issuer    *JWTIssuer
	baseHost  string
	baseRoute string
	info      SDKInfo
}

// NewStaticBearer builds a StaticBearer for one hosted facilitator base URL.
func NewStaticBearer(keyID, keySecret, baseHost, baseRoute string, info SDKInfo) *StaticBearer {
	return &StaticBearer{
		issuer:    NewJWTIssuer(keyID, keySecret),
		baseHost:  baseHost,
		baseRoute: baseRoute,
		info:      info,
	}
}

// Headers returns the {"Authorization": ..., "Correlation-Context": ...}
// map a client should attach when calling the given endpoint.
func (f *StaticBearer) Headers(endpoint Endpoint) (map[string]string, error) {
	path := fmt.Sprintf("%s/%s", f.baseRoute, endpoint)
	auth, err := f.issuer.BearerHeader(f.baseHost, path)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"Authorization":       auth,
		"Correlation-Context": CorrelationContext(f.info),
	}, nil
}
