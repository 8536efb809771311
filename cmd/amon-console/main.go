package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cmodk/amon"
	"github.com/cmodk/amon/client"
	"github.com/cmodk/amon/console"
)

var (
	app = amon.New()
	lg  = app.Logger

	debug   = flag.Bool("debug", false, "Enable debug output")
	device  = flag.String("device", "", "Show a single device instead of the dashboard")
	history = flag.Bool("history", false, "Show telemetry history for the device given with -device")
	metric  = flag.String("metric", "BRIGHTNESS", "History metric: BRIGHTNESS, WIFI or BLUETOOTH")
	window  = flag.String("window", "24h", "History window: 1h, 6h, 24h or 7d")

	set_brightness   = flag.Int("set-brightness", -1, "Send a brightness command to the device given with -device")
	toggle_wifi      = flag.Bool("toggle-wifi", false, "Toggle wifi on the device given with -device")
	toggle_bluetooth = flag.Bool("toggle-bluetooth", false, "Toggle bluetooth on the device given with -device")

	redraw_interval = flag.Duration("redraw", 2*time.Second, "Redraw interval for the console output")
)

func main() {
	flag.Parse()
	if *debug {
		app.Logger.Level = logrus.DebugLevel
	}

	cl := client.New(app.Config.ApiBaseUrl, lg)
	clock := console.SystemClock()

	if *device == "" {
		runDashboard(cl, clock)
		return
	}

	if *history {
		runHistory(cl, clock, *device)
		return
	}

	runDetail(cl, clock, *device)
}

func waitForInterrupt() chan os.Signal {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	return interrupt
}

func runDashboard(cl *client.Client, clock console.Clock) {
	view := console.NewDashboard(cl, clock, lg, app.RefreshDuration())
	view.Open()
	defer view.Close()

	interrupt := waitForInterrupt()

	for {
		select {
		case <-interrupt:
			return
		case <-time.After(*redraw_interval):
			drawDashboard(view.Snapshot())
		}
	}
}

func drawDashboard(state console.DashboardState) {
	if state.Loading {
		fmt.Printf("Loading device list...\n")
		return
	}

	fmt.Printf("\nAndroid Device Monitoring Dashboard\n")
	fmt.Printf("Total %d devices\n\n", len(state.Rows))

	if state.Error != "" {
		fmt.Printf("!! %s\n\n", state.Error)
	}

	if len(state.Rows) == 0 && state.Error == "" {
		fmt.Printf("No device data available\n")
		return
	}

	for _, row := range state.Rows {
		fmt.Printf("%-24s [%-7s] %-18s last seen %s\n",
			row.Device.DeviceId,
			row.Liveness.Severity,
			row.Liveness.Label,
			row.Device.LastSeen.Local().Format("2006-01-02 15:04:05"))
	}
}

func runDetail(cl *client.Client, clock console.Clock, device_id string) {
	view := console.NewDetail(cl, clock, lg, device_id, app.RefreshDuration())
	view.Open()
	defer view.Close()

	command_sent := false

	interrupt := waitForInterrupt()

	for {
		select {
		case <-interrupt:
			return
		case <-time.After(*redraw_interval):
			state := view.Snapshot()
			drawDetail(device_id, state)

			if state.Device != nil && !command_sent {
				command_sent = true
				go sendCommands(view)
			}
		}
	}
}

//sendCommands runs any one shot command flags once device state is known,
//the confirmation refresh shows up in later redraws.
func sendCommands(view *console.Detail) {
	if *set_brightness >= 0 {
		view.SetBrightness(*set_brightness)
		if err := view.CommitBrightness(); err != nil {
			lg.WithField("error", err).Error("Brightness command failed")
		}
	}

	if *toggle_wifi {
		if err := view.ToggleWifi(); err != nil {
			lg.WithField("error", err).Error("Wifi toggle failed")
		}
	}

	if *toggle_bluetooth {
		if err := view.ToggleBluetooth(); err != nil {
			lg.WithField("error", err).Error("Bluetooth toggle failed")
		}
	}
}

func drawDetail(device_id string, state console.DetailState) {
	if state.Loading {
		fmt.Printf("Loading device details...\n")
		return
	}

	fmt.Printf("\nDevice %s\n", device_id)

	if state.Error != "" {
		fmt.Printf("!! %s\n", state.Error)
		return
	}

	if state.Message != nil {
		fmt.Printf(">> [%s] %s\n", state.Message.Severity, state.Message.Text)
	}

	d := state.Device
	if d == nil {
		fmt.Printf("Device not found\n")
		return
	}

	ssid := "Not connected"
	if d.Wifi.Ssid != nil {
		ssid = *d.Wifi.Ssid
	}

	fmt.Printf("  Status:     %s (%s)\n", state.Liveness.Label, state.Liveness.Severity)
	fmt.Printf("  WiFi:       %s  network %s  pending=%v\n", d.Wifi.Status, ssid, state.Pending[amon.SlotWifi])
	fmt.Printf("  Bluetooth:  %s  %d paired  pending=%v\n", d.Bluetooth.Status, d.Bluetooth.PairedDevices, state.Pending[amon.SlotBluetooth])
	fmt.Printf("  Brightness: %.0f%% (slider %d%%)  pending=%v\n", d.Screen.Brightness, state.Brightness, state.Pending[amon.SlotBrightness])
	fmt.Printf("  Updated:    %s\n", d.LastUpdated.Local().Format("2006-01-02 15:04:05"))
}

func runHistory(cl *client.Client, clock console.Clock, device_id string) {
	view := console.NewHistory(cl, clock, lg, device_id)
	view.SetQuery(amon.HistoryType(*metric), amon.TimeWindow(*window))

	//One shot: wait for the load to settle, print the series and exit
	for i := 0; i < 50; i++ {
		if !view.Snapshot().Loading {
			break
		}
		time.Sleep(200 * time.Millisecond)
	}

	defer view.Close()

	state := view.Snapshot()

	if state.Error != "" {
		fmt.Printf("!! %s\n", state.Error)
		os.Exit(1)
	}

	fmt.Printf("\n%s history for %s (last %s)\n\n", state.Metric, device_id, state.Window)

	if len(state.Points) == 0 {
		fmt.Printf("No historical data available for the selected time range\n")
		return
	}

	for _, p := range state.Points {
		switch state.Metric {
		case amon.HistoryBrightness:
			fmt.Printf("%-18s %3d%%\n", p.TimeLabel, p.Value)
		case amon.HistoryWifi:
			ssid := ""
			if p.Ssid != nil {
				ssid = *p.Ssid
			}
			fmt.Printf("%-18s %-7s %s\n", p.TimeLabel, p.Status, ssid)
		case amon.HistoryBluetooth:
			paired := 0
			if p.PairedDevices != nil {
				paired = *p.PairedDevices
			}
			fmt.Printf("%-18s %-7s %d paired\n", p.TimeLabel, p.Status, paired)
		}
	}
}
