package amon

import (
	"time"
)

type RadioStatus string

const (
	RadioOn      RadioStatus = "ON"
	RadioOff     RadioStatus = "OFF"
	RadioUnknown RadioStatus = "UNKNOWN"
)

type WifiState struct {
	Status RadioStatus `json:"status"`
	Ssid   *string     `json:"ssid"`
}

type BluetoothState struct {
	Status        RadioStatus `json:"status"`
	PairedDevices int         `json:"pairedDevices"`
}

type ScreenState struct {
	Brightness float64 `json:"brightness"`
}

//Device is the monitored state as reported by the backend. It is only ever
//replaced by a fresh fetch, commands do not mutate it locally.
type Device struct {
	DeviceId    string         `json:"deviceId"`
	LastSeen    time.Time      `json:"lastSeen"`
	Wifi        WifiState      `json:"wifi"`
	Bluetooth   BluetoothState `json:"bluetooth"`
	Screen      ScreenState    `json:"screen"`
	LastUpdated time.Time      `json:"lastUpdated"`
}

type DeviceList struct {
	Devices []Device `json:"devices"`
}
