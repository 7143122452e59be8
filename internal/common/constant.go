package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// PingStatusOK is the payload returned by a healthy server on Ping.
const PingStatusOK = "OK"
