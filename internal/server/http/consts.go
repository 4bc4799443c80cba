package http

const (
	AuthorizationKey    = "Authorization"
	BearerPrefix        = "Bearer "
	ContentType         = "Content-Type"
	ApplicationJSONType = "application/json"

	maxBodyBytes = 1 << 20
)

type key string

const (
	requestIDKey key = "request_id"
	claimsKey    key = "claims"
)
