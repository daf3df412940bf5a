package ops

import (
	"github.com/hpungsan/capped"
	"github.com/hpungsan/capped/internal/errors"
)

// TruncateInput contains parameters for the Truncate operation.
type TruncateInput struct {
	Text   string
	Metric Metric // default: MetricBytes
	Limit  int
}

// TruncateOutput contains the result of the Truncate operation.
type TruncateOutput struct {
	Text      string `json:"text"`
	Metric    Metric `json:"metric"`
	Size      int    `json:"size"`
	Limit     int    `json:"limit"`
	Truncated bool   `json:"truncated"`
}

// Truncate cuts text down to fit limit. Byte truncation never splits a
// UTF-8 sequence, so the result may be a few bytes under the limit.
func Truncate(input TruncateInput) (*TruncateOutput, error) {
	metric, err := parseMetric(input.Metric)
	if err != nil {
		return nil, err
	}
	if input.Limit < 0 {
		return nil, errors.NewInvalidRequest("limit must not be negative")
	}

	var (
		text string
		size int
	)
	switch metric {
	case MetricChars:
		v := capped.TruncText(input.Text, input.Limit)
		text, size = v.Inner(), v.Len()
	default:
		v := capped.TruncString(input.Text, input.Limit)
		text, size = v.Inner(), v.Len()
	}

	return &TruncateOutput{
		Text:      text,
		Metric:    metric,
		Size:      size,
		Limit:     input.Limit,
		Truncated: text != input.Text,
	}, nil
}
