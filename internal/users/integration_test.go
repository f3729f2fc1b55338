//go:build integration

package users_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	tcrabbit "github.com/testcontainers/testcontainers-go/modules/rabbitmq"

	"github.com/Jansmig/magmamath/internal/users"
	"github.com/Jansmig/magmamath/pkg/models"
	"github.com/Jansmig/magmamath/pkg/mongodb"
	"github.com/Jansmig/magmamath/pkg/rabbitmq"
)

func setupMongo(t *testing.T) *users.MongoRepository {
	t.Helper()
	ctx := context.Background()

	container, err := tcmongo.Run(ctx, "mongo:7")
	require.NoError(t, err, "mongo container: ensure Docker is running")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongodb.Connect(ctx, uri, 10, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { mongodb.Disconnect(context.Background(), client) })

	repo := users.NewMongoRepository(client.Database("magmamath_test"))
	require.NoError(t, repo.EnsureIndexes(ctx))
	return repo
}

func setupRabbit(t *testing.T) (string, *rabbitmq.Client) {
	t.Helper()
	ctx := context.Background()

	container, err := tcrabbit.Run(ctx, "rabbitmq:3.13-management-alpine")
	require.NoError(t, err, "rabbitmq container: ensure Docker is running")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.AmqpURL(ctx)
	require.NoError(t, err)

	client := rabbitmq.NewClient(rabbitmq.ClientConfig{
		URL:            url,
		Exchange:       "magma",
		ExchangeType:   "topic",
		PublishTimeout: 5 * time.Second,
	})
	require.NoError(t, client.Connect(ctx))
	t.Cleanup(client.Disconnect)
	return url, client
}

// observe binds an exclusive queue to key on the magma exchange.
func observe(t *testing.T, url, key string) (*amqp.Channel, string) {
	t.Helper()
	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ch, err := conn.Channel()
	require.NoError(t, err)

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, key, "magma", false, nil))
	return ch, q.Name
}

func TestCreateUser_EndToEnd(t *testing.T) {
	repo := setupMongo(t)
	url, client := setupRabbit(t)
	ch, queue := observe(t, url, "user.created")

	svc := users.NewService(repo, client, 3)
	ctx := context.Background()

	ann, err := svc.CreateUser(ctx, "Ann", "ann@x.com")
	require.NoError(t, err)
	assert.Len(t, ann.ID, 24)
	assert.False(t, ann.CreatedAt.IsZero())

	_, err = svc.CreateUser(ctx, "Ann2", "ann@x.com")
	assert.ErrorIs(t, err, users.ErrConflict)

	var msg amqp.Delivery
	require.Eventually(t, func() bool {
		var ok bool
		msg, ok, err = ch.Get(queue, true)
		return err == nil && ok
	}, 5*time.Second, 50*time.Millisecond)

	assert.Equal(t, "user.created", msg.RoutingKey)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)

	var env models.Envelope
	require.NoError(t, json.Unmarshal(msg.Body, &env))
	assert.Equal(t, env.EventID, msg.MessageId)
	payload, err := models.DecodePayload[models.UserCreatedPayload](env)
	require.NoError(t, err)
	assert.Equal(t, models.UserCreatedPayload{UserID: ann.ID, Email: "ann@x.com", Name: "Ann"}, payload)

	time.Sleep(200 * time.Millisecond)
	_, ok, err := ch.Get(queue, true)
	require.NoError(t, err)
	assert.False(t, ok, "the rejected create must not publish")
}

func TestMongoRepository_CaseInsensitiveEmail(t *testing.T) {
	repo := setupMongo(t)
	ctx := context.Background()

	now := time.Now().UTC()
	created, err := repo.Create(ctx, models.User{Name: "Bob", Email: "bob@x.com", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	found, err := repo.FindByEmail(ctx, "BOB@X.COM")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.Create(ctx, models.User{Name: "Bob2", Email: "Bob@x.com", CreatedAt: now, UpdatedAt: now})
	assert.Error(t, err, "unique index rejects a case variant")
}

func TestMongoRepository_UpdateAndDelete(t *testing.T) {
	repo := setupMongo(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	created, err := repo.Create(ctx, models.User{Name: "Ann", Email: "ann@x.com", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	name := "Anna"
	later := now.Add(time.Minute)
	updated, err := repo.UpdateByID(ctx, created.ID, users.Patch{Name: &name, UpdatedAt: later})
	require.NoError(t, err)
	assert.Equal(t, "Anna", updated.Name)
	assert.Equal(t, "ann@x.com", updated.Email)
	assert.True(t, updated.UpdatedAt.Equal(later))

	page, err := repo.FindMany(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Meta.Total)

	deleted, err := repo.DeleteByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)

	_, err = repo.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, users.ErrNotFound)
}
