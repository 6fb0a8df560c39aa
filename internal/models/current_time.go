package models

import "time"

type CurrentTimeData struct {
	CurrentTime  int64  `json:"currentTime"`
	ReadableTime string `json:"readableTime"`
}

func NewCurrentTimeData(t time.Time) CurrentTimeData {
	return CurrentTimeData{
		CurrentTime:  t.UnixMilli(),
		ReadableTime: t.Format(time.RFC3339),
	}
}
