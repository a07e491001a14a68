// Package api contains the v1 HTTP contract of the trendlens dashboard API.
package api

// DatasetPath identifies a stored dataset
type DatasetPath struct {
	ID string `json:"id" param:"id" validate:"required,uuid"`
}

// TopicQuery selects the topic of a trend or forecast view. An empty topic
// means the first topic of the dataset.
type TopicQuery struct {
	DatasetPath
	Topic string `json:"topic" query:"topic" validate:"omitempty,max=256"`
}

// ClusterQuery selects the cluster count. Zero means the configured default.
type ClusterQuery struct {
	DatasetPath
	K int `json:"k" query:"k" validate:"omitempty,min=1,max=1000"`
}

// OverviewQuery selects topic and cluster count for all views at once
type OverviewQuery struct {
	DatasetPath
	Topic string `json:"topic" query:"topic" validate:"omitempty,max=256"`
	K     int    `json:"k" query:"k" validate:"omitempty,min=1,max=1000"`
}

// ChartQuery selects a chart image
type ChartQuery struct {
	DatasetPath
	Kind  string `json:"kind" param:"kind" validate:"required"`
	Topic string `json:"topic" query:"topic" validate:"omitempty,max=256"`
}

// ReportQuery selects the report download format
type ReportQuery struct {
	DatasetPath
	Format string `json:"format" query:"format" validate:"omitempty,oneof=xlsx csv"`
	Topic  string `json:"topic" query:"topic" validate:"omitempty,max=256"`
	K      int    `json:"k" query:"k" validate:"omitempty,min=1,max=1000"`
}
