package model

// Key names an app message field. Values and numbering must match the watch
// app's message key table.
type Key string

const (
	KeyUpdateReq    Key = "UPDATE_REQ_KEY"        // 0, int32: non-zero requests fresh data
	KeyAppName      Key = "APP_NAME_KEY"          // 1, cstring
	KeyResponseTime Key = "APP_RESPONSE_TIME_KEY" // 2, cstring: the watch has no floats
	KeyThroughput   Key = "APP_THROUGHPUT_KEY"    // 3, int32
	KeyErrorRate    Key = "APP_ERROR_RATE_KEY"    // 4, cstring
	KeyUpdateFreq   Key = "UPDATE_FREQ_KEY"       // 5, int32 minutes
	KeyApdexScore   Key = "APP_APDEX_SCORE_KEY"   // 6, cstring, two decimals
)

// Payload is the key/value dictionary carried by one app message.
type Payload map[Key]any
