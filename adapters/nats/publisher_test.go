package nats

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonyfromundefined/ventyd-sub000/core/entity"
	"github.com/tonyfromundefined/ventyd-sub000/core/entity/entitytest"
)

func TestPublisher(t *testing.T) {
	connect := ReuseConnection(NewTestContainer(t))
	ctx := t.Context()

	pub, err := NewPublisher(PublisherConfig{
		Connect:    connect,
		StreamName: "test_publisher",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pub.Close() })
	require.Equal(t, "nats-publisher", pub.Name())

	schema := entitytest.NewSchema()
	e, err := schema.Create(entity.CreateArgs{
		EntityID: "profile-1",
		Body:     entitytest.ProfileCreated{Nickname: "John"},
	})
	require.NoError(t, err)
	_, err = e.Dispatch(entitytest.EventBioUpdated, entitytest.BioUpdated{Bio: "hello"})
	require.NoError(t, err)
	events := e.QueuedEvents()

	require.NoError(t, pub.OnCommitted(ctx, entity.Committed{
		EntityName: entitytest.EntityName,
		EntityID:   "profile-1",
		Events:     events,
	}))

	// read the stream back through an ephemeral consumer
	nc, disconnect, err := connect()
	require.NoError(t, err)
	t.Cleanup(disconnect)

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	consumer, err := js.CreateOrUpdateConsumer(ctx, "TEST_PUBLISHER", jetstream.ConsumerConfig{
		AckPolicy:     jetstream.AckExplicitPolicy,
		FilterSubject: "ventyd.entity.profile.profile-1.>",
	})
	require.NoError(t, err)

	batch, err := consumer.Fetch(len(events), jetstream.FetchMaxWait(10*time.Second))
	require.NoError(t, err)

	var got []jetstream.Msg
	for msg := range batch.Messages() {
		require.NoError(t, msg.Ack())
		got = append(got, msg)
	}
	require.NoError(t, batch.Error())
	require.Len(t, got, len(events))

	for i, msg := range got {
		assert.Equal(t, "ventyd.entity.profile.profile-1."+suffixOf(events[i].EventName), msg.Subject())
		assert.Equal(t, events[i].EventName, msg.Headers().Get("x-event-name"))
		assert.Equal(t, entitytest.EntityName, msg.Headers().Get("x-entity-name"))
		assert.Equal(t, "profile-1", msg.Headers().Get("x-entity-id"))

		decoded, err := entity.DecodeEvent(msg.Data())
		require.NoError(t, err)
		assert.Equal(t, events[i].EventID, decoded.EventID)
	}
}

func TestPublisher_deduplicates(t *testing.T) {
	connect := ReuseConnection(NewTestContainer(t))
	ctx := t.Context()

	pub, err := NewPublisher(PublisherConfig{
		Connect:    connect,
		StreamName: "test_dedup",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pub.Close() })

	schema := entitytest.NewSchema()
	e, err := schema.Create(entity.CreateArgs{
		EntityID: "profile-1",
		Body:     entitytest.ProfileCreated{Nickname: "John"},
	})
	require.NoError(t, err)

	committed := entity.Committed{
		EntityName: entitytest.EntityName,
		EntityID:   "profile-1",
		Events:     e.QueuedEvents(),
	}

	// publishing the same commit twice yields one stored message
	require.NoError(t, pub.OnCommitted(ctx, committed))
	require.NoError(t, pub.OnCommitted(ctx, committed))

	info, err := pub.stream.Info(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, info.State.Msgs)
}

func TestPublisher_asPlugin(t *testing.T) {
	connect := ReuseConnection(NewTestContainer(t))
	ctx := t.Context()

	pub, err := NewPublisher(PublisherConfig{
		Connect:    connect,
		StreamName: "test_plugin",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pub.Close() })

	repo := entity.NewRepository(
		nil,
		entitytest.NewSchema(),
		entity.NewInMemoryAdapter(),
		entity.WithPlugins(pub),
	)

	e, err := repo.Schema().Create(entity.CreateArgs{
		EntityID: "profile-1",
		Body:     entitytest.ProfileCreated{Nickname: "John"},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Commit(ctx, e))

	info, err := pub.stream.Info(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, info.State.Msgs)
}

func suffixOf(eventName string) string {
	return eventName[len(entitytest.EntityName)+1:]
}
