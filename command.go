package amon

import (
	"fmt"
	"math"
	"time"
)

type CommandType string

const (
	CommandSetBrightness   CommandType = "SET_BRIGHTNESS"
	CommandToggleWifi      CommandType = "TOGGLE_WIFI"
	CommandToggleBluetooth CommandType = "TOGGLE_BLUETOOTH"
)

//CommandSlot names the per device control a command occupies. At most one
//command per slot may be in flight at a time.
type CommandSlot string

const (
	SlotBrightness CommandSlot = "brightness"
	SlotWifi       CommandSlot = "wifi"
	SlotBluetooth  CommandSlot = "bluetooth"
)

func (t CommandType) Slot() CommandSlot {
	switch t {
	case CommandToggleWifi:
		return SlotWifi
	case CommandToggleBluetooth:
		return SlotBluetooth
	}

	return SlotBrightness
}

//ConfirmDelay is how long after acceptance the device state is re-fetched to
//reconcile the optimistic UI. Radios take longer to settle than the screen.
func (t CommandType) ConfirmDelay() time.Duration {
	if t == CommandSetBrightness {
		return 2 * time.Second
	}

	return 3 * time.Second
}

//CommandRequest is the wire payload posted to the command endpoint. It only
//exists for the duration of one dispatch.
type CommandRequest struct {
	CommandType CommandType `json:"commandType"`
	Parameters  StringMap   `json:"parameters"`
}

func BrightnessCommand(brightness int) CommandRequest {
	return CommandRequest{
		CommandType: CommandSetBrightness,
		Parameters:  StringMap{"brightness": brightness},
	}
}

//ToggleCommand builds a radio toggle targeting the complement of the last
//known status. An unknown status has no complement and is rejected.
func ToggleCommand(t CommandType, current RadioStatus) (CommandRequest, error) {
	var target RadioStatus

	switch current {
	case RadioOn:
		target = RadioOff
	case RadioOff:
		target = RadioOn
	default:
		return CommandRequest{}, fmt.Errorf("cannot toggle %s from status %s", t, current)
	}

	return CommandRequest{
		CommandType: t,
		Parameters:  StringMap{"status": string(target)},
	}, nil
}

//TargetBrightness extracts the requested percentage from a brightness
//command, tolerating the float the parameters decode to after a json round
//trip.
func (c CommandRequest) TargetBrightness() int {
	switch v := c.Parameters["brightness"].(type) {
	case int:
		return v
	case float64:
		return int(math.Round(v))
	}

	return 0
}

func (c CommandRequest) TargetStatus() RadioStatus {
	if s, ok := c.Parameters["status"].(string); ok {
		return RadioStatus(s)
	}

	return RadioUnknown
}
