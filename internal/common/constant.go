package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the access
// token on outbound requests.
const AccessTokenHeaderName = "access_token"

// RequestIDHeaderName is the HTTP header carrying the request id.
const RequestIDHeaderName = "X-Request-ID"

// DefaultRole is assigned to every newly registered user.
const DefaultRole = "user"
