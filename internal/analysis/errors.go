package analysis

import "errors"

var (
	ErrUnknownTopic     = errors.New("unknown topic")
	ErrNoNumericColumns = errors.New("dataset has no numeric columns")
	ErrInvalidK         = errors.New("invalid number of clusters")
	ErrForecastFailed   = errors.New("forecast failed")
)
