package amon

import (
	"math"
	"time"
)

type HistoryType string

const (
	HistoryBrightness HistoryType = "BRIGHTNESS"
	HistoryWifi       HistoryType = "WIFI"
	HistoryBluetooth  HistoryType = "BLUETOOTH"
)

type TimeWindow string

const (
	WindowHour    TimeWindow = "1h"
	WindowSixHour TimeWindow = "6h"
	WindowDay     TimeWindow = "24h"
	WindowWeek    TimeWindow = "7d"
)

var windowDurations = map[TimeWindow]time.Duration{
	WindowHour:    time.Hour,
	WindowSixHour: 6 * time.Hour,
	WindowDay:     24 * time.Hour,
	WindowWeek:    7 * 24 * time.Hour,
}

func (w TimeWindow) Duration() time.Duration {
	d, ok := windowDurations[w]
	if !ok {
		return windowDurations[WindowDay]
	}

	return d
}

//Resolve turns the relative window into absolute bounds. The end is always
//the supplied now, never a cached value.
func (w TimeWindow) Resolve(now time.Time) (time.Time, time.Time) {
	return now.Add(-w.Duration()), now
}

//HistoryPoint carries the raw fields of one telemetry sample. The populated
//fields depend on the history type: brightness fills Value, wifi fills
//Status and Ssid, bluetooth fills Status and PairedDevices.
type HistoryPoint struct {
	Timestamp     time.Time `json:"timestamp"`
	Value         *float64  `json:"value,omitempty"`
	Status        string    `json:"status,omitempty"`
	Ssid          *string   `json:"ssid,omitempty"`
	PairedDevices *int      `json:"pairedDevices,omitempty"`
}

type HistoryData struct {
	Data []HistoryPoint `json:"data"`
}

//ChartPoint is the uniform shape the charts consume. StatusValue is the 0/1
//projection of Status for plotting on/off transitions, Status keeps the
//backend string verbatim for display.
type ChartPoint struct {
	TimeLabel     string    `json:"time"`
	FullTimeLabel string    `json:"fullTime"`
	Timestamp     time.Time `json:"timestamp"`
	Value         int       `json:"value,omitempty"`
	Status        string    `json:"status,omitempty"`
	StatusValue   int       `json:"statusValue"`
	Ssid          *string   `json:"ssid,omitempty"`
	PairedDevices *int      `json:"pairedDevices,omitempty"`
}

const (
	timeLabelLayout     = "15:04"
	dateTimeLabelLayout = "01/02 15:04"
	fullTimeLabelLayout = "2006-01-02 15:04:05"
)

//NormalizeHistory maps raw points into chart points, preserving the input
//order. The backend is responsible for sending ascending timestamps. An
//absent or empty input yields an empty, renderable series.
func NormalizeHistory(points []HistoryPoint, t HistoryType, w TimeWindow) []ChartPoint {
	chart := make([]ChartPoint, 0, len(points))

	label_layout := timeLabelLayout
	if w == WindowWeek {
		//A week of points needs the date to tell same-time samples apart
		label_layout = dateTimeLabelLayout
	}

	for _, p := range points {
		cp := ChartPoint{
			TimeLabel:     p.Timestamp.Local().Format(label_layout),
			FullTimeLabel: p.Timestamp.Local().Format(fullTimeLabelLayout),
			Timestamp:     p.Timestamp,
		}

		switch t {
		case HistoryBrightness:
			if p.Value != nil {
				cp.Value = int(math.Round(*p.Value))
			}
		case HistoryWifi:
			cp.Status = p.Status
			cp.StatusValue = statusValue(p.Status)
			cp.Ssid = p.Ssid
		case HistoryBluetooth:
			cp.Status = p.Status
			cp.StatusValue = statusValue(p.Status)
			cp.PairedDevices = p.PairedDevices
		}

		chart = append(chart, cp)
	}

	return chart
}

func statusValue(status string) int {
	if status == string(RadioOn) {
		return 1
	}

	return 0
}
