package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/devicecfg/internal/config"
	"github.com/tamzrod/devicecfg/internal/endpoint"
	"github.com/tamzrod/devicecfg/internal/poller"
	"github.com/tamzrod/devicecfg/internal/retry"
	"github.com/tamzrod/devicecfg/internal/status"
)

type codedErr struct{ code uint16 }

func (e codedErr) Error() string { return fmt.Sprintf("code %d", e.code) }
func (e codedErr) Code() uint16  { return e.code }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "device.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const goodConfig = `
network:
  ssid: greenhouse
  passphrase: correct-horse
endpoints:
  sensor_ingest: https://api.farm.test/api/sensors
  heartbeat: https://api.farm.test/api/devices/heartbeat
  command_enqueue: https://api.farm.test/api/devices/commands
  command_poll: https://api.farm.test/api/devices/commands/pending
  command_ack: https://api.farm.test/api/devices/ack
  config_sync: https://api.farm.test/api/config
device:
  id: ESP32_007
`

func TestErrorCode(t *testing.T) {
	assert.Equal(t, uint16(0), errorCode(nil))
	assert.Equal(t, uint16(1), errorCode(io.EOF))
	assert.Equal(t, uint16(2), errorCode(codedErr{code: 2}))
	assert.Equal(t, uint16(11), errorCode(fmt.Errorf("read: %w", codedErr{code: 11})))
}

func TestWatch_FoldsResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan poller.PollResult)
	got := make(chan status.Snapshot, 1)

	go func() {
		got <- watch(ctx, quietLogger().WithField("test", true), in, time.Hour, 0)
	}()

	in <- poller.PollResult{Err: codedErr{code: 4}}
	in <- poller.PollResult{Err: codedErr{code: 6}}
	cancel()

	snap := <-got
	assert.Equal(t, status.HealthError, snap.Health)
	assert.Equal(t, uint16(6), snap.LastErrorCode)
}

func TestWatch_RecoveryResets(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan poller.PollResult)
	got := make(chan status.Snapshot, 1)

	go func() {
		got <- watch(ctx, quietLogger().WithField("test", true), in, time.Millisecond, 0)
	}()

	in <- poller.PollResult{Err: io.ErrUnexpectedEOF}
	time.Sleep(20 * time.Millisecond)
	in <- poller.PollResult{}
	cancel()

	snap := <-got
	assert.Equal(t, status.Snapshot{Health: status.HealthOK}, snap)
}

func TestRun_Validate(t *testing.T) {
	path := writeConfig(t, goodConfig)

	assert.Equal(t, 0, run([]string{"-log-level", "error", "validate", path}))
}

func TestRun_ValidateStrictFailsOnWarnings(t *testing.T) {
	// defaults carry placeholder credentials and hosts
	path := writeConfig(t, "device:\n  id: ESP32_002\n")

	assert.Equal(t, 0, run([]string{"-log-level", "panic", "validate", path}))
	assert.Equal(t, 1, run([]string{"-log-level", "panic", "validate", "-strict", path}))
}

func TestRun_ValidateRejectsBadConfig(t *testing.T) {
	path := writeConfig(t, goodConfig+"pins:\n  pump: 27\n")

	assert.Equal(t, 1, run([]string{"-log-level", "panic", "validate", path}))
}

func TestRun_ExportHeaderToFile(t *testing.T) {
	path := writeConfig(t, goodConfig)
	out := filepath.Join(t.TempDir(), "config.h")

	require.Equal(t, 0, run([]string{"-log-level", "error", "export", "-o", out, path}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "// Code generated by devicecfg from device.yaml. DO NOT EDIT.")
	assert.Contains(t, string(data), `#define WIFI_PASS "correct-horse"`)
	assert.Contains(t, string(data), `#define DEVICE_ID "ESP32_007"`)
}

func TestRun_ExportYAMLRedacts(t *testing.T) {
	path := writeConfig(t, goodConfig)
	out := filepath.Join(t.TempDir(), "device.out.yaml")

	require.Equal(t, 0, run([]string{"-log-level", "error", "export", "-format", "yaml", "-o", out, path}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "correct-horse"))
}

func TestRun_UsageErrors(t *testing.T) {
	assert.Equal(t, 2, run(nil))
	assert.Equal(t, 2, run([]string{"frobnicate"}))
	assert.Equal(t, 2, run([]string{"validate"}))
	assert.Equal(t, 2, run([]string{"-log-level", "loud", "validate", "x.yaml"}))

	path := writeConfig(t, goodConfig)
	assert.Equal(t, 2, run([]string{"export", "-format", "toml", path}))
}

func TestRun_InitWritesLoadableDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.yaml")

	require.Equal(t, 0, run([]string{"-log-level", "error", "init", path}))
	assert.Equal(t, 1, run([]string{"-log-level", "panic", "init", path}), "refuses to overwrite")
	assert.Equal(t, 0, run([]string{"-log-level", "panic", "init", "-force", path}))

	assert.Equal(t, 0, run([]string{"-log-level", "panic", "validate", path}))
}

func TestWatch_GoesStaleWithoutResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan poller.PollResult)
	got := make(chan status.Snapshot, 1)

	go func() {
		got <- watch(ctx, quietLogger().WithField("test", true), in, time.Millisecond, 5*time.Millisecond)
	}()

	in <- poller.PollResult{}
	time.Sleep(50 * time.Millisecond)
	cancel()

	snap := <-got
	assert.Equal(t, status.HealthStale, snap.Health)
	assert.NotZero(t, snap.SecondsInError)
}

func TestRun_WatchRejectsSubMillisecondInterval(t *testing.T) {
	path := writeConfig(t, goodConfig)

	assert.Equal(t, 2, run([]string{"-log-level", "panic", "watch", "-interval", "500us", path}))
	assert.Equal(t, 2, run([]string{"-log-level", "panic", "watch", "-interval", "-1s", path}))
}

// ---- bus check ----

// busClient answers FC 1..4 and counts reads across every client sharing reads.
type busClient struct {
	err   error
	reads *int
}

func (c *busClient) read() error {
	*c.reads++
	return c.err
}

func (c *busClient) ReadCoils(addr, qty uint16) ([]bool, error) {
	return make([]bool, qty), c.read()
}

func (c *busClient) ReadDiscreteInputs(addr, qty uint16) ([]bool, error) {
	return make([]bool, qty), c.read()
}

func (c *busClient) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	return make([]uint16, qty), c.read()
}

func (c *busClient) ReadInputRegisters(addr, qty uint16) ([]uint16, error) {
	return make([]uint16, qty), c.read()
}

func TestBusCheck(t *testing.T) {
	cases := []struct {
		name       string
		first      error
		later      error
		wantHealth uint16
		wantReads  int
		wantMade   int
		wantWarn   string
		wantDetail string
	}{
		{
			name:       "exception stops retries",
			first:      codedErr{code: 2},
			wantHealth: status.HealthOK,
			wantReads:  1,
			wantWarn:   "exception 2",
			wantDetail: "unit 1 answered on /dev/ttyUSB0",
		},
		{
			name:       "transport error then success",
			first:      io.ErrUnexpectedEOF,
			wantHealth: status.HealthOK,
			wantReads:  2,
			wantMade:   1,
			wantDetail: "unit 1 answered on /dev/ttyUSB0",
		},
		{
			name:       "budget exhausted",
			first:      io.ErrUnexpectedEOF,
			later:      io.ErrUnexpectedEOF,
			wantHealth: status.HealthError,
			wantReads:  3,
			wantMade:   2,
			wantDetail: "unexpected EOF",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reads, made := 0, 0

			p, err := poller.New(
				poller.Config{
					DeviceID: "ESP32_001",
					UnitID:   1,
					Interval: time.Second,
					Reads:    []poller.ReadBlock{{FC: 3, Address: 0, Quantity: 1}},
				},
				&busClient{err: tc.first, reads: &reads},
				func() (poller.Client, error) {
					made++
					return &busClient{err: tc.later, reads: &reads}, nil
				},
			)
			require.NoError(t, err)

			policy := retry.Policy{Delay: time.Millisecond, MaxRetries: 2}
			health, detail, warns := busCheck(context.Background(), quietLogger().WithField("test", true), p, policy, config.Default().Bus)

			assert.Equal(t, tc.wantHealth, health)
			assert.Contains(t, detail, tc.wantDetail)
			assert.Equal(t, tc.wantReads, reads)
			assert.Equal(t, tc.wantMade, made)
			if tc.wantWarn == "" {
				assert.Empty(t, warns)
			} else {
				require.Len(t, warns, 1)
				assert.Contains(t, warns[0], tc.wantWarn)
			}
		})
	}
}

// ---- check ----

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })
	return &buf
}

func TestRun_CheckReportsConfigFailure(t *testing.T) {
	out := captureStdout(t)
	path := writeConfig(t, goodConfig+"pins:\n  pump: 27\n")

	assert.Equal(t, 1, run([]string{"-log-level", "panic", "check", "-skip-bus", path}))

	assert.Contains(t, out.String(), "name: config")
	assert.Contains(t, out.String(), "health: error")
	assert.Contains(t, out.String(), "overall: error")
	assert.NotContains(t, out.String(), "name: bus")
}

func TestRun_CheckSkipBus(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/config" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	old := newProber
	newProber = func(deviceID string, policy retry.Policy, log *logrus.Logger) *endpoint.Prober {
		return endpoint.NewProber(deviceID, policy, endpoint.Options{HTTPClient: srv.Client(), Logger: log})
	}
	t.Cleanup(func() { newProber = old })

	out := captureStdout(t)
	path := writeConfig(t, strings.ReplaceAll(goodConfig, "https://api.farm.test", srv.URL))

	require.Equal(t, 0, run([]string{"-log-level", "panic", "check", "-skip-bus", path}))

	report := out.String()
	assert.Contains(t, report, "device_id: ESP32_007")
	assert.Contains(t, report, "name: endpoint.heartbeat")
	assert.Contains(t, report, "name: bus")
	assert.Contains(t, report, "health: disabled")
	assert.Contains(t, report, "HTTP 404")
	assert.Contains(t, report, "overall: ok")
}
