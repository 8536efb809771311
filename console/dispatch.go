package console

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cmodk/amon"
	"github.com/cmodk/amon/client"
)

//ErrCommandPending rejects a dispatch while the slot already has a command
//in flight. This is a local precondition failure, no request is issued.
var ErrCommandPending = errors.New("command already pending for slot")

//Dispatcher runs the per slot command state machine of one device view. A
//slot is pending from dispatch start until the backend accepts or rejects
//the command, acceptance ends the pending state immediately and schedules a
//single delayed refresh to reconcile the real device state.
type Dispatcher struct {
	client   *client.Client
	clock    Clock
	logger   *logrus.Logger
	messages *Messages
	refresh  func()

	mu      sync.Mutex
	pending map[amon.CommandSlot]bool
	timers  []Timer
	closed  bool
}

func NewDispatcher(cl *client.Client, clock Clock, logger *logrus.Logger, messages *Messages, refresh func()) *Dispatcher {
	if clock == nil {
		clock = realClock{}
	}

	return &Dispatcher{
		client:   cl,
		clock:    clock,
		logger:   logger,
		messages: messages,
		refresh:  refresh,
		pending:  map[amon.CommandSlot]bool{},
	}
}

func (d *Dispatcher) Pending(slot amon.CommandSlot) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.pending[slot]
}

//Dispatch sends one control command and drives the slot through its
//transitions. The call blocks on the network round trip, failures resolve
//into a transient error message and never leave the slot pending.
func (d *Dispatcher) Dispatch(ctx context.Context, device_id string, command amon.CommandRequest) error {
	slot := command.CommandType.Slot()

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return errors.New("dispatcher closed")
	}
	if d.pending[slot] {
		d.mu.Unlock()
		return ErrCommandPending
	}
	d.pending[slot] = true
	d.mu.Unlock()

	d.messages.Show(MessageInfo, pendingText(command))

	err := d.client.CommandSend(ctx, device_id, command)

	d.mu.Lock()
	d.pending[slot] = false
	closed := d.closed
	d.mu.Unlock()

	if err != nil {
		d.logger.WithField("device", device_id).
			WithField("command", command.CommandType).
			WithField("error", err).
			Error("Command dispatch failed")
		d.messages.Show(MessageError, failureText(command))

		return err
	}

	d.messages.Show(MessageSuccess, acceptedText(command))

	if closed {
		return nil
	}

	//Acceptance is not an acknowledgment of hardware state, re-fetch once
	//after the command has had time to take effect
	d.schedule(command.CommandType.ConfirmDelay())

	return nil
}

func (d *Dispatcher) schedule(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	timer := d.clock.AfterFunc(delay, func() {
		d.mu.Lock()
		closed := d.closed
		d.mu.Unlock()

		if closed {
			return
		}

		d.refresh()
	})

	d.timers = append(d.timers, timer)
}

//Close cancels every scheduled confirmation refresh. In flight dispatches
//finish their round trip but schedule nothing afterwards.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true

	for _, timer := range d.timers {
		timer.Stop()
	}

	d.timers = nil
}

func pendingText(command amon.CommandRequest) string {
	switch command.CommandType {
	case amon.CommandSetBrightness:
		return "Setting brightness..."
	case amon.CommandToggleWifi:
		return fmt.Sprintf("Turning %s WiFi...", onOff(command.TargetStatus()))
	case amon.CommandToggleBluetooth:
		return fmt.Sprintf("Turning %s Bluetooth...", onOff(command.TargetStatus()))
	}

	return "Sending command..."
}

func acceptedText(command amon.CommandRequest) string {
	switch command.CommandType {
	case amon.CommandSetBrightness:
		return fmt.Sprintf("Brightness set to %d%%", command.TargetBrightness())
	case amon.CommandToggleWifi:
		return fmt.Sprintf("WiFi %s command sent", onOff(command.TargetStatus()))
	case amon.CommandToggleBluetooth:
		return fmt.Sprintf("Bluetooth %s command sent", onOff(command.TargetStatus()))
	}

	return "Command sent"
}

func failureText(command amon.CommandRequest) string {
	switch command.CommandType {
	case amon.CommandSetBrightness:
		return "Failed to set brightness"
	case amon.CommandToggleWifi:
		return "WiFi control failed"
	case amon.CommandToggleBluetooth:
		return "Bluetooth control failed"
	}

	return "Command failed"
}

func onOff(status amon.RadioStatus) string {
	return strings.ToLower(string(status))
}
