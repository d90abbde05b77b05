package utils

// Metric carries latency samples from the hot paths to the prometheus
// collectors in the metric package.
type Metric struct {
	DatabaseReadForAuthMiddleware chan float64
	SuggestLatency                chan float64

	// rejection codes from placement validation
	Rejections chan string
}

func NewMetric() *Metric {
	return &Metric{
		DatabaseReadForAuthMiddleware: make(chan float64),
		SuggestLatency:                make(chan float64),
		Rejections:                    make(chan string),
	}
}
