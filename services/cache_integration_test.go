//go:build integration

package services

import (
	"context"
	"testing"
	"time"

	"saferoute-api/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCacheServiceFeedGenerations(t *testing.T) {
	ctx := context.Background()
	c := newCacheServiceWithClient(startRedis(t), nil)

	_, gen, ok := c.GetVisible(ctx, 100)
	require.False(t, ok)
	assert.Zero(t, gen)

	feed := []models.Hazard{{
		ID:         "h-1",
		HazardType: models.HazardPothole,
		Status:     models.StatusVerified,
		CreatedAt:  time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC),
	}}
	c.PutVisible(ctx, gen, 100, feed)

	got, gen, ok := c.GetVisible(ctx, 100)
	require.True(t, ok)
	assert.Zero(t, gen)
	require.Len(t, got, 1)
	assert.Equal(t, "h-1", got[0].ID)
	assert.Equal(t, models.StatusVerified, got[0].Status)

	c.InvalidateVisible(ctx)
	_, newGen, ok := c.GetVisible(ctx, 100)
	assert.False(t, ok, "a transition hides the previous feed")
	assert.Equal(t, int64(1), newGen)

	// A fill computed before the invalidation lands under the old generation
	// and is never served.
	c.PutVisible(ctx, gen, 100, feed)
	_, _, ok = c.GetVisible(ctx, 100)
	assert.False(t, ok)
}
