package monitoring

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorHealthy(t *testing.T) {
	app, err := tests.NewTestApp(t.TempDir())
	require.NoError(t, err)
	defer app.Cleanup()

	redisClient, redisMock := redismock.NewClientMock()
	monitor := &Monitor{app: app, redis: redisClient}

	redisMock.ExpectPing().SetVal("PONG")
	assert.NoError(t, monitor.Healthy(context.Background()))

	redisMock.ExpectPing().SetErr(errors.New("connection refused"))
	assert.Error(t, monitor.Healthy(context.Background()))

	assert.NoError(t, redisMock.ExpectationsWereMet())
}
