package console

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cmodk/amon"
	"github.com/cmodk/amon/client"
)

type DetailState struct {
	Device     *amon.Device
	Liveness   *amon.Liveness
	Brightness int
	Loading    bool
	Error      string
	Message    *Message
	Pending    map[amon.CommandSlot]bool
}

//Detail is the single device view. Beyond the poll cycle it owns the
//command dispatcher, the transient message line and the local brightness
//slider value. Dragging the slider only moves the local value, the command
//goes out on commit.
type Detail struct {
	deviceId   string
	client     *client.Client
	clock      Clock
	logger     *logrus.Logger
	interval   time.Duration
	poller     *Poller
	messages   *Messages
	dispatcher *Dispatcher

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	generation uint64
	device     *amon.Device
	brightness int
	loading    bool
	err        string
	loaded     bool
}

func NewDetail(cl *client.Client, clock Clock, logger *logrus.Logger, device_id string, interval time.Duration) *Detail {
	if clock == nil {
		clock = realClock{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	v := &Detail{
		deviceId:   device_id,
		client:     cl,
		clock:      clock,
		logger:     logger,
		interval:   interval,
		poller:     NewPoller(clock),
		messages:   NewMessages(clock),
		ctx:        ctx,
		cancel:     cancel,
		brightness: 50,
		loading:    true,
	}

	v.dispatcher = NewDispatcher(cl, clock, logger, v.messages, func() {
		v.fetch(true)
	})

	return v
}

func (v *Detail) Open() {
	go v.fetch(false)

	v.poller.Start(v.interval, func() {
		v.fetch(true)
	})
}

func (v *Detail) Refresh() {
	go v.fetch(true)
}

func (v *Detail) Close() {
	v.poller.Stop()
	v.dispatcher.Close()
	v.messages.Close()
	v.cancel()

	v.mu.Lock()
	v.generation++
	v.mu.Unlock()
}

func (v *Detail) fetch(is_refresh bool) {
	v.mu.Lock()
	tag := v.generation
	if !is_refresh {
		v.loading = true
	}
	v.mu.Unlock()

	device, err := v.client.DeviceGet(v.ctx, v.deviceId)

	v.mu.Lock()
	defer v.mu.Unlock()

	if tag != v.generation {
		v.logger.Debugf("Dropping stale device result for %s\n", v.deviceId)
		return
	}

	v.loading = false

	if err != nil {
		v.logger.WithField("device", v.deviceId).WithField("error", err).Error("Failed to fetch device")
		v.err = "Unable to load device details"
		if !v.loaded {
			v.device = nil
		}
		return
	}

	v.device = device
	v.brightness = int(math.Round(device.Screen.Brightness))
	v.err = ""
	v.loaded = true
}

//SetBrightness moves the local slider value only, no command is sent until
//CommitBrightness.
func (v *Detail) SetBrightness(brightness int) {
	if brightness < 0 {
		brightness = 0
	}
	if brightness > 100 {
		brightness = 100
	}

	v.mu.Lock()
	v.brightness = brightness
	v.mu.Unlock()
}

func (v *Detail) CommitBrightness() error {
	v.mu.Lock()
	brightness := v.brightness
	v.mu.Unlock()

	return v.dispatcher.Dispatch(v.ctx, v.deviceId, amon.BrightnessCommand(brightness))
}

func (v *Detail) ToggleWifi() error {
	v.mu.Lock()
	device := v.device
	v.mu.Unlock()

	if device == nil {
		return fmt.Errorf("no device state for %s yet", v.deviceId)
	}

	command, err := amon.ToggleCommand(amon.CommandToggleWifi, device.Wifi.Status)
	if err != nil {
		return err
	}

	return v.dispatcher.Dispatch(v.ctx, v.deviceId, command)
}

func (v *Detail) ToggleBluetooth() error {
	v.mu.Lock()
	device := v.device
	v.mu.Unlock()

	if device == nil {
		return fmt.Errorf("no device state for %s yet", v.deviceId)
	}

	command, err := amon.ToggleCommand(amon.CommandToggleBluetooth, device.Bluetooth.Status)
	if err != nil {
		return err
	}

	return v.dispatcher.Dispatch(v.ctx, v.deviceId, command)
}

func (v *Detail) CommandPending(slot amon.CommandSlot) bool {
	return v.dispatcher.Pending(slot)
}

func (v *Detail) Snapshot() DetailState {
	v.mu.Lock()
	defer v.mu.Unlock()

	state := DetailState{
		Brightness: v.brightness,
		Loading:    v.loading,
		Error:      v.err,
		Message:    v.messages.Current(),
		Pending: map[amon.CommandSlot]bool{
			amon.SlotBrightness: v.dispatcher.Pending(amon.SlotBrightness),
			amon.SlotWifi:       v.dispatcher.Pending(amon.SlotWifi),
			amon.SlotBluetooth:  v.dispatcher.Pending(amon.SlotBluetooth),
		},
	}

	if v.device != nil {
		device := *v.device
		liveness := amon.ClassifyDevice(device, v.clock.Now())
		state.Device = &device
		state.Liveness = &liveness
	}

	return state
}
