package dataset

import "errors"

// InvalidMonthMessage is the single user-facing rejection for an upload
// whose Month column is absent or not entirely parseable.
const InvalidMonthMessage = "The dataset must contain a valid 'Month' column in YYYY-MM format."

var (
	// ErrInvalidDataset is returned by Validate for every rejection
	ErrInvalidDataset = errors.New(InvalidMonthMessage)

	ErrEmptyInput        = errors.New("dataset is empty")
	ErrUnsupportedFormat = errors.New("unsupported file format, expected .csv or .xlsx")
	ErrNotNumeric        = errors.New("column is not numeric")
)
