package console

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/cmodk/amon"
	"github.com/cmodk/amon/client"
)

type HistoryState struct {
	Metric  amon.HistoryType
	Window  amon.TimeWindow
	Points  []amon.ChartPoint
	Loading bool
	Error   string
}

//History is the telemetry chart view. It does not poll, every metric or
//window change and every manual refresh triggers a one shot load with the
//window re-resolved against the current time. A query change invalidates
//whatever is still in flight for the previous query.
type History struct {
	deviceId string
	client   *client.Client
	clock    Clock
	logger   *logrus.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	generation uint64
	metric     amon.HistoryType
	window     amon.TimeWindow
	points     []amon.ChartPoint
	loading    bool
	err        string
}

func NewHistory(cl *client.Client, clock Clock, logger *logrus.Logger, device_id string) *History {
	if clock == nil {
		clock = realClock{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &History{
		deviceId: device_id,
		client:   cl,
		clock:    clock,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		metric:   amon.HistoryBrightness,
		window:   amon.WindowDay,
		loading:  true,
	}
}

func (v *History) Open() {
	go v.fetch()
}

//SetQuery switches metric and window, discarding any in flight result for
//the previous selection.
func (v *History) SetQuery(metric amon.HistoryType, window amon.TimeWindow) {
	v.mu.Lock()
	v.metric = metric
	v.window = window
	v.generation++
	v.loading = true
	v.mu.Unlock()

	go v.fetch()
}

func (v *History) Refresh() {
	v.mu.Lock()
	v.loading = true
	v.mu.Unlock()

	go v.fetch()
}

func (v *History) Close() {
	v.cancel()

	v.mu.Lock()
	v.generation++
	v.mu.Unlock()
}

func (v *History) fetch() {
	v.mu.Lock()
	tag := v.generation
	metric := v.metric
	window := v.window
	v.mu.Unlock()

	//The window end is always the current time, never cached
	from, to := window.Resolve(v.clock.Now())

	points, err := v.client.DeviceHistory(v.ctx, v.deviceId, metric, from, to)

	v.mu.Lock()
	defer v.mu.Unlock()

	if tag != v.generation {
		v.logger.Debugf("Dropping stale %s history for %s\n", metric, v.deviceId)
		return
	}

	v.loading = false

	if err != nil {
		v.logger.WithField("device", v.deviceId).
			WithField("type", metric).
			WithField("error", err).
			Error("Failed to fetch history")
		v.err = "Unable to load history data"
		return
	}

	//An empty series is a valid no data state, not a failure
	v.points = amon.NormalizeHistory(points, metric, window)
	v.err = ""
}

func (v *History) Snapshot() HistoryState {
	v.mu.Lock()
	defer v.mu.Unlock()

	return HistoryState{
		Metric:  v.metric,
		Window:  v.window,
		Points:  v.points,
		Loading: v.loading,
		Error:   v.err,
	}
}
