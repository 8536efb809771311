package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/cmodk/go-simpleflake"
	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/sirupsen/logrus"

	"github.com/cmodk/amon"
	amon_app "github.com/cmodk/amon/app"
)

var (
	app = amon.New()
	lg  = app.Logger

	debug         = flag.Bool("debug", false, "Enable debug output")
	device_count  = flag.Int("devices", 4, "Number of simulated devices")
	command_delay = flag.Duration("command-delay", 1500*time.Millisecond, "Delay before an accepted command takes effect")
	envelope      = flag.Bool("envelope", true, "Wrap the device list in the gateway body envelope")

	sim *simulator
)

func main() {
	flag.Parse()
	if *debug {
		app.Logger.Level = logrus.DebugLevel
	}

	sim = newSimulator(*device_count)

	app.Use(amon_app.Cors())

	app.Get("/devices", deviceListHandler)
	app.Get("/devices/{device}", deviceGetHandler)
	app.Get("/devices/{device}/history", deviceHistoryHandler)
	app.Post("/devices/{device}/command", deviceCommandHandler)

	app.Run()
}

type simDevice struct {
	amon.Device
	History map[amon.HistoryType][]amon.HistoryPoint
}

type simulator struct {
	mu      sync.Mutex
	devices map[string]*simDevice
}

func newSimulator(count int) *simulator {
	s := &simulator{
		devices: map[string]*simDevice{},
	}

	now := time.Now().UTC()

	//Spread last seen ages across the liveness buckets
	ages := []time.Duration{
		30 * time.Second,
		10 * time.Minute,
		2 * time.Hour,
		3 * 24 * time.Hour,
	}

	for i := 0; i < count; i++ {
		id := fmt.Sprintf("android-%03d", i+1)
		ssid := fmt.Sprintf("lab-net-%d", i%2)

		d := &simDevice{
			Device: amon.Device{
				DeviceId:    id,
				LastSeen:    now.Add(-ages[i%len(ages)]),
				Wifi:        amon.WifiState{Status: amon.RadioOn, Ssid: &ssid},
				Bluetooth:   amon.BluetoothState{Status: amon.RadioOff, PairedDevices: i % 3},
				Screen:      amon.ScreenState{Brightness: float64(30 + 10*(i%7))},
				LastUpdated: now,
			},
			History: map[amon.HistoryType][]amon.HistoryPoint{},
		}

		if i%3 == 2 {
			d.Bluetooth.Status = amon.RadioUnknown
		}

		seedHistory(d, now)

		s.devices[id] = d
	}

	lg.Infof("Simulating %d devices\n", count)

	return s
}

func seedHistory(d *simDevice, now time.Time) {

	//One sample every 10 minutes over the last week
	for ts := now.Add(-7 * 24 * time.Hour); ts.Before(now); ts = ts.Add(10 * time.Minute) {
		hour := float64(ts.Unix()) / 3600.0

		value := 50 + 40*math.Sin(hour/4)
		d.History[amon.HistoryBrightness] = append(d.History[amon.HistoryBrightness], amon.HistoryPoint{
			Timestamp: ts,
			Value:     &value,
		})

		wifi_status := string(amon.RadioOn)
		if int(hour)%7 == 0 {
			wifi_status = string(amon.RadioOff)
		}
		d.History[amon.HistoryWifi] = append(d.History[amon.HistoryWifi], amon.HistoryPoint{
			Timestamp: ts,
			Status:    wifi_status,
			Ssid:      d.Wifi.Ssid,
		})

		bt_status := string(amon.RadioOff)
		if int(hour)%5 == 0 {
			bt_status = string(amon.RadioOn)
		}
		paired := d.Bluetooth.PairedDevices
		d.History[amon.HistoryBluetooth] = append(d.History[amon.HistoryBluetooth], amon.HistoryPoint{
			Timestamp:     ts,
			Status:        bt_status,
			PairedDevices: &paired,
		})
	}
}

func (s *simulator) list() []amon.Device {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices := make([]amon.Device, 0, len(s.devices))
	for _, d := range s.devices {
		devices = append(devices, d.Device)
	}

	sort.Slice(devices, func(i, j int) bool {
		return devices[i].DeviceId < devices[j].DeviceId
	})

	return devices
}

func (s *simulator) get(id string) (amon.Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.devices[id]
	if !ok {
		return amon.Device{}, false
	}

	return d.Device, true
}

func (s *simulator) history(id string, t amon.HistoryType, from time.Time, to time.Time) ([]amon.HistoryPoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.devices[id]
	if !ok {
		return nil, false
	}

	points := []amon.HistoryPoint{}
	for _, p := range d.History[t] {
		if p.Timestamp.Before(from) || p.Timestamp.After(to) {
			continue
		}
		points = append(points, p)
	}

	return points, true
}

//apply mutates the stored device the way the real agent eventually would,
//well after the command was accepted.
func (s *simulator) apply(id string, command amon.CommandRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.devices[id]
	if !ok {
		return
	}

	switch command.CommandType {
	case amon.CommandSetBrightness:
		d.Screen.Brightness = float64(command.TargetBrightness())
	case amon.CommandToggleWifi:
		d.Wifi.Status = command.TargetStatus()
	case amon.CommandToggleBluetooth:
		d.Bluetooth.Status = command.TargetStatus()
	}

	now := time.Now().UTC()
	d.LastUpdated = now
	d.LastSeen = now

	lg.WithField("device", id).WithField("command", command.CommandType).Debug("Command applied")
}

func deviceListHandler(w http.ResponseWriter, r *http.Request) {
	list := amon.DeviceList{Devices: sim.list()}

	if !*envelope {
		app.JsonResponse(w, list)
		return
	}

	//The production gateway returns the list as a json encoded string under
	//a body field
	data, err := json.Marshal(list)
	if err != nil {
		app.HttpInternalError(w, err)
		return
	}

	app.JsonResponse(w, map[string]string{"body": string(data)})
}

func deviceGetHandler(w http.ResponseWriter, r *http.Request) {
	device_id := mux.Vars(r)["device"]

	d, ok := sim.get(device_id)
	if !ok {
		app.HttpNotFound(w, fmt.Errorf("unknown device: %s", device_id))
		return
	}

	app.JsonResponse(w, d)
}

type historyQuery struct {
	Type string `schema:"type"`
	From string `schema:"from"`
	To   string `schema:"to"`
}

func deviceHistoryHandler(w http.ResponseWriter, r *http.Request) {
	device_id := mux.Vars(r)["device"]

	q := historyQuery{}

	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	if err := decoder.Decode(&q, r.URL.Query()); err != nil {
		app.HttpBadRequest(w, err)
		return
	}

	t := amon.HistoryType(q.Type)
	if t != amon.HistoryWifi && t != amon.HistoryBluetooth {
		t = amon.HistoryBrightness
	}

	from := time.Now().UTC().Add(-24 * time.Hour)
	to := time.Now().UTC()

	if q.From != "" {
		parsed, err := time.Parse(time.RFC3339, q.From)
		if err != nil {
			app.HttpBadRequest(w, err)
			return
		}
		from = parsed
	}

	if q.To != "" {
		parsed, err := time.Parse(time.RFC3339, q.To)
		if err != nil {
			app.HttpBadRequest(w, err)
			return
		}
		to = parsed
	}

	points, ok := sim.history(device_id, t, from, to)
	if !ok {
		app.HttpNotFound(w, fmt.Errorf("unknown device: %s", device_id))
		return
	}

	app.JsonResponse(w, amon.HistoryData{Data: points})
}

func deviceCommandHandler(w http.ResponseWriter, r *http.Request) {
	device_id := mux.Vars(r)["device"]

	if _, ok := sim.get(device_id); !ok {
		app.HttpNotFound(w, fmt.Errorf("unknown device: %s", device_id))
		return
	}

	var command amon.CommandRequest

	if err := json.NewDecoder(r.Body).Decode(&command); err != nil {
		app.HttpBadRequest(w, err)
		return
	}

	switch command.CommandType {
	case amon.CommandSetBrightness, amon.CommandToggleWifi, amon.CommandToggleBluetooth:
	default:
		app.HttpBadRequest(w, fmt.Errorf("unknown command type: %s", command.CommandType))
		return
	}

	command_id := simpleflake.Next()

	lg.WithField("device", device_id).
		WithField("command", command.CommandType).
		WithField("command_id", command_id).
		Info("Command accepted")

	//Acceptance only, the state change lands later
	time.AfterFunc(*command_delay, func() {
		sim.apply(device_id, command)
	})

	resp := struct {
		CommandId uint64 `json:"commandId"`
		Message   string `json:"message"`
	}{
		CommandId: command_id,
		Message:   "Command accepted",
	}

	app.JsonResponse(w, resp)
}
