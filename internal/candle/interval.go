package candle

// Named interval widths in seconds. Unrecognized names fall back to one
// hour rather than failing the request.
var intervalWidths = map[string]int64{
	"1m":  60,
	"5m":  300,
	"15m": 900,
	"30m": 1800,
	"1h":  3600,
	"4h":  14400,
	"12h": 43200,
	"1d":  86400,
	"1w":  604800,
}

const defaultIntervalWidth = 3600

// IntervalWidth returns the bucket width in seconds for an interval
// name.
func IntervalWidth(name string) int64 {
	if width, ok := intervalWidths[name]; ok {
		return width
	}
	return defaultIntervalWidth
}
