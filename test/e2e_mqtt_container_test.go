package test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/dbw/app"
	"github.com/kilianp07/dbw/config"
)

func startMosquitto(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	conf := "listener 1883\nallow_anonymous true\n"
	dir := t.TempDir()
	path := filepath.Join(dir, "mosquitto.conf")
	if err := os.WriteFile(path, []byte(conf), 0644); err != nil {
		t.Fatalf("write conf: %v", err)
	}

	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
		Files: []tc.ContainerFile{
			{
				HostFilePath:      path,
				ContainerFilePath: "/mosquitto/config/mosquitto.conf",
				FileMode:          0644,
			},
		},
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("container start: %v", err)
	}
	host, err := cont.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := cont.MappedPort(ctx, "1883")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	broker := fmt.Sprintf("tcp://%s:%s", host, port.Port())
	if err := waitForMQTTReady(broker, 10*time.Second); err != nil {
		t.Skipf("mosquitto not ready at %s: %v", broker, err)
	}
	return cont, broker
}

func waitForMQTTReady(broker string, timeout time.Duration) error {
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID("probe")
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		cli := paho.NewClient(opts)
		token := cli.Connect()
		token.Wait()
		if token.Error() == nil {
			cli.Disconnect(100)
			return nil
		}
		lastErr = token.Error()
		time.Sleep(100 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for broker")
	}
	return lastErr
}

func connectClient(t *testing.T, broker, id string) paho.Client {
	t.Helper()
	cli := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID(id))
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		t.Fatalf("connect %s: %v", id, token.Error())
	}
	return cli
}

func publishJSON(t *testing.T, cli paho.Client, topic string, v any) {
	t.Helper()
	payload, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if token := cli.Publish(topic, 0, false, payload); token.Wait() && token.Error() != nil {
		t.Fatalf("publish %s: %v", topic, token.Error())
	}
}

func TestE2ENodePublishesCommands(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cont, broker := startMosquitto(ctx, t)
	defer func() {
		if err := cont.Terminate(context.Background()); err != nil {
			t.Logf("terminate: %v", err)
		}
	}()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfgData := fmt.Sprintf("mqtt:\n  broker: %q\ncontrol:\n  sampling_rate_hz: 50\n", broker)
	if err := os.WriteFile(cfgPath, []byte(cfgData), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	svc, err := app.New(cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			t.Logf("close: %v", err)
		}
	}()
	runCtx, stopSvc := context.WithCancel(ctx)
	defer stopSvc()
	done := make(chan error, 1)
	go func() { done <- svc.Run(runCtx) }()

	upstream := connectClient(t, broker, "e2e-upstream")
	defer upstream.Disconnect(250)
	listener := connectClient(t, broker, "e2e-listener")
	defer listener.Disconnect(250)

	var throttle, brake, steering atomic.Int64
	sub := func(topic string, counter *atomic.Int64) {
		token := listener.Subscribe(topic, 0, func(_ paho.Client, msg paho.Message) {
			var m struct {
				Enable bool `json:"enable"`
			}
			if err := json.Unmarshal(msg.Payload(), &m); err != nil || !m.Enable {
				t.Errorf("bad command payload on %s: %s", topic, msg.Payload())
				return
			}
			counter.Add(1)
		})
		if token.Wait() && token.Error() != nil {
			t.Fatalf("subscribe %s: %v", topic, token.Error())
		}
	}
	sub("vehicle/throttle_cmd", &throttle)
	sub("vehicle/brake_cmd", &brake)
	sub("vehicle/steering_cmd", &steering)

	// Give the node time to install its own subscriptions.
	time.Sleep(500 * time.Millisecond)

	// Enabled but not ready: no commands may appear.
	publishJSON(t, upstream, "vehicle/dbw_enabled", map[string]bool{"enabled": true})
	time.Sleep(300 * time.Millisecond)
	if n := throttle.Load() + brake.Load() + steering.Load(); n != 0 {
		t.Fatalf("%d commands published before velocities were observed", n)
	}

	publishJSON(t, upstream, "twist_cmd", map[string]float64{"linear_x": 5, "angular_z": 0})
	publishJSON(t, upstream, "current_velocity", map[string]float64{"linear_x": 5})

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if throttle.Load() >= 3 && brake.Load() >= 3 && steering.Load() >= 3 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if throttle.Load() < 3 || brake.Load() < 3 || steering.Load() < 3 {
		t.Fatalf("command stream missing: throttle=%d brake=%d steering=%d",
			throttle.Load(), brake.Load(), steering.Load())
	}

	// Disabling must stop the stream.
	publishJSON(t, upstream, "vehicle/dbw_enabled", map[string]bool{"enabled": false})
	time.Sleep(300 * time.Millisecond)
	after := throttle.Load()
	time.Sleep(500 * time.Millisecond)
	if throttle.Load() != after {
		t.Fatalf("commands still flowing after disable")
	}

	stopSvc()
	if err := <-done; err != nil {
		t.Fatalf("service run: %v", err)
	}
}
