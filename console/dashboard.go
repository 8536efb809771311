package console

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cmodk/amon"
	"github.com/cmodk/amon/client"
)

//DeviceRow pairs a device with its derived liveness for rendering.
type DeviceRow struct {
	Device   amon.Device
	Liveness amon.Liveness
}

type DashboardState struct {
	Rows       []DeviceRow
	Loading    bool
	Refreshing bool
	Error      string
}

//Dashboard is the device list view. It fetches once on Open and then on
//every poll interval until Close. Results are tagged with the generation
//they were issued for, results from a closed generation are dropped without
//touching state.
type Dashboard struct {
	client   *client.Client
	clock    Clock
	logger   *logrus.Logger
	interval time.Duration
	poller   *Poller

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	generation uint64
	devices    []amon.Device
	loading    bool
	refreshing bool
	err        string
	loaded     bool
}

func NewDashboard(cl *client.Client, clock Clock, logger *logrus.Logger, interval time.Duration) *Dashboard {
	if clock == nil {
		clock = realClock{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Dashboard{
		client:   cl,
		clock:    clock,
		logger:   logger,
		interval: interval,
		poller:   NewPoller(clock),
		ctx:      ctx,
		cancel:   cancel,
		loading:  true,
	}
}

func (v *Dashboard) Open() {
	go v.fetch(false)

	v.poller.Start(v.interval, func() {
		v.fetch(true)
	})
}

//Refresh re-runs the normal fetch path without blanking already displayed
//devices while the request is in flight.
func (v *Dashboard) Refresh() {
	go v.fetch(true)
}

func (v *Dashboard) Close() {
	v.poller.Stop()
	v.cancel()

	v.mu.Lock()
	v.generation++
	v.mu.Unlock()
}

func (v *Dashboard) fetch(is_refresh bool) {
	v.mu.Lock()
	tag := v.generation
	if is_refresh {
		v.refreshing = true
	} else {
		v.loading = true
	}
	v.mu.Unlock()

	devices, err := v.client.DeviceList(v.ctx)

	v.mu.Lock()
	defer v.mu.Unlock()

	if tag != v.generation {
		v.logger.Debugf("Dropping stale device list result\n")
		return
	}

	v.loading = false
	v.refreshing = false

	if err != nil {
		v.logger.WithField("error", err).Error("Failed to fetch devices")
		v.err = "Unable to load device list, please check your network connection"
		if !v.loaded {
			v.devices = nil
		}
		return
	}

	v.devices = devices
	v.err = ""
	v.loaded = true
}

func (v *Dashboard) Snapshot() DashboardState {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.clock.Now()

	rows := make([]DeviceRow, 0, len(v.devices))
	for _, d := range v.devices {
		rows = append(rows, DeviceRow{
			Device:   d,
			Liveness: amon.ClassifyDevice(d, now),
		})
	}

	return DashboardState{
		Rows:       rows,
		Loading:    v.loading,
		Refreshing: v.refreshing,
		Error:      v.err,
	}
}
