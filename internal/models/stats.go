package models

// DashboardStats is the scalar snapshot shown in the header cards.
type DashboardStats struct {
	ActiveCrawls Number `json:"active_crawls"`
	PagesCrawled Number `json:"pages_crawled"`
	SuccessRate  Number `json:"success_rate"`
	QueueSize    Number `json:"queue_size"`
}

// TrendDirection is the direction of a metric's movement.
type TrendDirection string

const (
	TrendUp   TrendDirection = "up"
	TrendDown TrendDirection = "down"
	TrendFlat TrendDirection = "flat"
)

// MetricSample is one row of the metrics table snapshot.
type MetricSample struct {
	Name            string         `json:"name"`
	Current         Number         `json:"current"`
	Average         Number         `json:"average"`
	Peak            Number         `json:"peak"`
	TrendDirection  TrendDirection `json:"trend_direction"`
	TrendPercentage Number         `json:"trend_percentage"`
}

// TimeRange is a value of the dashboard's time range selector.
type TimeRange string

const (
	TimeRangeHour      TimeRange = "1h"
	TimeRangeSixHours  TimeRange = "6h"
	TimeRangeDay       TimeRange = "24h"
	TimeRangeWeek      TimeRange = "7d"
	TimeRangeThirtyDay TimeRange = "30d"
)

// TimeRanges lists the selector values in display order.
func TimeRanges() []TimeRange {
	return []TimeRange{TimeRangeHour, TimeRangeSixHours, TimeRangeDay, TimeRangeWeek, TimeRangeThirtyDay}
}
