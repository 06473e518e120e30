//go:build integration

package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	coremetrics "github.com/ejosa-pasquale/HoreCa/core/metrics"
)

const mosquittoConf = `listener 1883
allow_anonymous true
persistence false
`

func startMosquitto(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mosquitto.conf")
	if err := os.WriteFile(path, []byte(mosquittoConf), 0o644); err != nil {
		t.Fatalf("write conf: %v", err)
	}
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
		Files: []tc.ContainerFile{{
			HostFilePath:      path,
			ContainerFilePath: "/mosquitto/config/mosquitto.conf",
			FileMode:          0o644,
		}},
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
	return cont, fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

// TestResultPublisherIntegration publishes a retained summary to a real broker
// and reads it back with a fresh subscriber.
func TestResultPublisherIntegration(t *testing.T) {
	ctx := context.Background()
	cont, broker := startMosquitto(ctx, t)
	defer func() { _ = cont.Terminate(ctx) }()

	p, err := NewResultPublisher(Config{Broker: broker, QoS: 1, Retain: true})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	ev := coremetrics.OptimizationEvent{RunID: "it-1", Best: "DC20=1", Solved: true, Candidates: 12}
	if err := p.RecordOptimization(ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := p.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	got := make(chan []byte, 1)
	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("it-sub"))
	if tok := sub.Connect(); tok.Wait() && tok.Error() != nil {
		t.Fatalf("subscriber connect: %v", tok.Error())
	}
	defer sub.Disconnect(100)
	tok := sub.Subscribe(DefaultTopicPrefix+"/it-1", 1, func(_ paho.Client, m paho.Message) {
		select {
		case got <- m.Payload():
		default:
		}
	})
	if tok.Wait() && tok.Error() != nil {
		t.Fatalf("subscribe: %v", tok.Error())
	}

	select {
	case payload := <-got:
		var back coremetrics.OptimizationEvent
		if err := json.Unmarshal(payload, &back); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if back.Best != "DC20=1" || !back.Solved {
			t.Fatalf("unexpected summary %+v", back)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("retained summary not received")
	}
}
