package models

const (
	DefaultSearchRadiusInMeters = 600
	MaxSearchRadiusInMeters     = 10000
)

const (
	DefaultMaxCountForStops = 100
	MaxAllowedCount         = 250
)
