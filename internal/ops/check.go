package ops

import (
	"github.com/hpungsan/capped"
	"github.com/hpungsan/capped/internal/errors"
)

// Metric selects how text size is measured.
type Metric string

const (
	MetricBytes Metric = "bytes" // default: UTF-8 bytes
	MetricChars Metric = "chars" // Unicode code points
)

func parseMetric(m Metric) (Metric, error) {
	switch m {
	case "":
		return MetricBytes, nil
	case MetricBytes, MetricChars:
		return m, nil
	default:
		return "", errors.NewInvalidRequest("metric must be one of: bytes, chars")
	}
}

// CheckInput contains parameters for the Check operation.
type CheckInput struct {
	Text   string
	Metric Metric // default: MetricBytes
	Limit  int
}

// CheckOutput contains the result of the Check operation.
type CheckOutput struct {
	Metric    Metric `json:"metric"`
	Size      int    `json:"size"`
	Limit     int    `json:"limit"`
	Fits      bool   `json:"fits"`
	Remaining int    `json:"remaining"`
}

// Check measures text against a limit without storing anything.
func Check(input CheckInput) (*CheckOutput, error) {
	metric, err := parseMetric(input.Metric)
	if err != nil {
		return nil, err
	}
	if input.Limit < 0 {
		return nil, errors.NewInvalidRequest("limit must not be negative")
	}

	var size int
	switch metric {
	case MetricChars:
		_, err = capped.TryText(input.Text, input.Limit)
		size = capped.Runes{}.Size(input.Text)
	default:
		_, err = capped.TryString(input.Text, input.Limit)
		size = capped.Bytes{}.Size(input.Text)
	}

	out := &CheckOutput{Metric: metric, Size: size, Limit: input.Limit, Fits: err == nil}
	if out.Fits {
		out.Remaining = input.Limit - size
	}
	return out, nil
}
