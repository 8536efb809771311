package console

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmodk/amon"
	"github.com/cmodk/amon/client"
)

type detailBackend struct {
	mu       sync.Mutex
	device   amon.Device
	commands []amon.CommandRequest
	gets     int
}

func (b *detailBackend) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()

		if r.Method == http.MethodPost {
			if !strings.HasSuffix(r.URL.Path, "/command") {
				http.NotFound(w, r)
				return
			}

			body, err := ioutil.ReadAll(r.Body)
			require.NoError(t, err)

			var command amon.CommandRequest
			require.NoError(t, json.Unmarshal(body, &command))
			b.commands = append(b.commands, command)

			w.Write([]byte(`{"message":"Command accepted"}`))
			return
		}

		b.gets++

		data, err := json.Marshal(b.device)
		require.NoError(t, err)
		w.Write(data)
	})
}

func (b *detailBackend) getCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.gets
}

func (b *detailBackend) sentCommands() []amon.CommandRequest {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]amon.CommandRequest(nil), b.commands...)
}

func TestDetailSeedsBrightnessFromDevice(t *testing.T) {
	clock := newFakeClock()

	backend := &detailBackend{
		device: amon.Device{
			DeviceId: "android-001",
			LastSeen: clock.Now(),
			Screen:   amon.ScreenState{Brightness: 72.4},
		},
	}

	server := httptest.NewServer(backend.handler(t))
	defer server.Close()

	v := NewDetail(client.New(server.URL, testLogger()), clock, testLogger(), "android-001", 30*time.Second)
	v.Open()
	defer v.Close()

	require.Eventually(t, func() bool {
		return !v.Snapshot().Loading
	}, time.Second, 5*time.Millisecond)

	state := v.Snapshot()
	require.NotNil(t, state.Device)
	assert.Equal(t, 72, state.Brightness)
	assert.Equal(t, amon.SeveritySuccess, state.Liveness.Severity)
}

func TestDetailSliderIsLocalUntilCommit(t *testing.T) {
	clock := newFakeClock()

	backend := &detailBackend{
		device: amon.Device{DeviceId: "android-001", LastSeen: clock.Now()},
	}

	server := httptest.NewServer(backend.handler(t))
	defer server.Close()

	v := NewDetail(client.New(server.URL, testLogger()), clock, testLogger(), "android-001", 30*time.Second)
	v.Open()
	defer v.Close()

	require.Eventually(t, func() bool {
		return !v.Snapshot().Loading
	}, time.Second, 5*time.Millisecond)

	v.SetBrightness(140)
	assert.Equal(t, 100, v.Snapshot().Brightness)

	v.SetBrightness(75)
	assert.Empty(t, backend.sentCommands())

	require.NoError(t, v.CommitBrightness())

	commands := backend.sentCommands()
	require.Len(t, commands, 1)
	assert.Equal(t, amon.CommandSetBrightness, commands[0].CommandType)
	assert.Equal(t, 75, commands[0].TargetBrightness())
}

func TestDetailToggleSendsComplement(t *testing.T) {
	clock := newFakeClock()

	backend := &detailBackend{
		device: amon.Device{
			DeviceId: "android-001",
			LastSeen: clock.Now(),
			Wifi:     amon.WifiState{Status: amon.RadioOn},
		},
	}

	server := httptest.NewServer(backend.handler(t))
	defer server.Close()

	v := NewDetail(client.New(server.URL, testLogger()), clock, testLogger(), "android-001", 30*time.Second)
	v.Open()
	defer v.Close()

	require.Eventually(t, func() bool {
		return v.Snapshot().Device != nil
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, v.ToggleWifi())

	commands := backend.sentCommands()
	require.Len(t, commands, 1)
	assert.Equal(t, amon.CommandToggleWifi, commands[0].CommandType)
	assert.Equal(t, amon.RadioOff, commands[0].TargetStatus())
}

func TestDetailToggleUnknownStatusRejected(t *testing.T) {
	clock := newFakeClock()

	backend := &detailBackend{
		device: amon.Device{
			DeviceId:  "android-001",
			LastSeen:  clock.Now(),
			Bluetooth: amon.BluetoothState{Status: amon.RadioUnknown},
		},
	}

	server := httptest.NewServer(backend.handler(t))
	defer server.Close()

	v := NewDetail(client.New(server.URL, testLogger()), clock, testLogger(), "android-001", 30*time.Second)
	v.Open()
	defer v.Close()

	require.Eventually(t, func() bool {
		return v.Snapshot().Device != nil
	}, time.Second, 5*time.Millisecond)

	err := v.ToggleBluetooth()
	require.Error(t, err)

	assert.Empty(t, backend.sentCommands())
	assert.False(t, v.CommandPending(amon.SlotBluetooth))
}

func TestDetailToggleBeforeLoadRejected(t *testing.T) {
	backend := &detailBackend{}

	server := httptest.NewServer(backend.handler(t))
	defer server.Close()

	v := NewDetail(client.New(server.URL, testLogger()), newFakeClock(), testLogger(), "android-001", 30*time.Second)

	//View never opened, no device state exists yet
	require.Error(t, v.ToggleWifi())
	assert.Empty(t, backend.sentCommands())
}

func TestDetailConfirmRefreshRefetchesDevice(t *testing.T) {
	clock := newFakeClock()

	backend := &detailBackend{
		device: amon.Device{
			DeviceId: "android-001",
			LastSeen: clock.Now(),
			Screen:   amon.ScreenState{Brightness: 50},
		},
	}

	server := httptest.NewServer(backend.handler(t))
	defer server.Close()

	v := NewDetail(client.New(server.URL, testLogger()), clock, testLogger(), "android-001", 30*time.Second)
	v.Open()
	defer v.Close()

	require.Eventually(t, func() bool {
		return !v.Snapshot().Loading
	}, time.Second, 5*time.Millisecond)

	v.SetBrightness(80)
	require.NoError(t, v.CommitBrightness())

	confirm := clock.timer(clock.timerCount() - 1)
	assert.Equal(t, 2*time.Second, confirm.delay)

	before := backend.getCount()
	confirm.fire()

	require.Eventually(t, func() bool {
		return backend.getCount() == before+1
	}, time.Second, 5*time.Millisecond)
}

func TestDetailFetchFailureShowsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "device gone", http.StatusNotFound)
	}))
	defer server.Close()

	v := NewDetail(client.New(server.URL, testLogger()), newFakeClock(), testLogger(), "android-001", 30*time.Second)
	v.Open()
	defer v.Close()

	require.Eventually(t, func() bool {
		return !v.Snapshot().Loading
	}, time.Second, 5*time.Millisecond)

	state := v.Snapshot()
	assert.Nil(t, state.Device)
	assert.Equal(t, "Unable to load device details", state.Error)
}
