package nats

import (
	"context"
	"testing"
	"time"

	"vehicle-rag-be/pkg/events"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startJetStream runs an in-process server with JetStream on a random port.
func startJetStream(t *testing.T) string {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
	})
	require.NoError(t, err)
	srv.Start()
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("nats not ready")
	}
	t.Cleanup(srv.Shutdown)
	return srv.ClientURL()
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "events.documents_ingested", Subject(events.TypeDocumentsIngested))
}

func TestPublisher_WritesToStream(t *testing.T) {
	url := startJetStream(t)
	ctx := context.Background()

	pub, err := NewPublisher(ctx, url)
	require.NoError(t, err)
	defer pub.Close()

	require.NoError(t, pub.Publish(ctx, events.NewDocumentsIngested([]string{"camry.pdf"}, 3)))

	stream, err := pub.js.Stream(ctx, StreamName)
	require.NoError(t, err)
	raw, err := stream.GetLastMsgForSubject(ctx, Subject(events.TypeDocumentsIngested))
	require.NoError(t, err)

	event, err := events.Unmarshal(raw.Data)
	require.NoError(t, err)
	assert.Equal(t, events.TypeDocumentsIngested, event.EventType())
	assert.EqualValues(t, 3, event.Payload()["chunks"])
}

func TestSubscriber_ReceivesPublishedEvents(t *testing.T) {
	url := startJetStream(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub, err := NewPublisher(ctx, url)
	require.NoError(t, err)
	defer pub.Close()

	sub, err := NewSubscriber(url)
	require.NoError(t, err)
	defer sub.Close()

	received := make(chan events.Event, 16)
	done := make(chan error, 1)
	go func() {
		done <- sub.Subscribe(ctx, SubjectPrefix+">", "", func(ctx context.Context, event events.Event) error {
			select {
			case received <- event:
			default:
			}
			return nil
		})
	}()

	// The ephemeral consumer only sees events published after it exists,
	// so keep publishing until one arrives.
	var got events.Event
	assert.Eventually(t, func() bool {
		_ = pub.Publish(ctx, events.NewDocumentsIngested([]string{"civic.pdf"}, 1))
		select {
		case got = <-received:
			return true
		default:
			return false
		}
	}, 10*time.Second, 100*time.Millisecond)

	require.NotNil(t, got)
	assert.Equal(t, events.TypeDocumentsIngested, got.EventType())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}
