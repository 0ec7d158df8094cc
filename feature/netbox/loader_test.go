package netbox

import (
	"testing"

	"netbox-sync/core/storage/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestLoader(t *testing.T) {
	feature := NewFeature(new(mocks.Client), "test-bucket", zap.NewNop(), setupSQLiteDB(t), testConfig())

	assert.Equal(t, "netbox", feature.Name())
	assert.True(t, feature.IsEnabled())
	assert.NotNil(t, feature.Service())

	app := fiber.New()
	assert.NoError(t, feature.Load(app))
}

func TestLoader_DisabledWithoutDatabase(t *testing.T) {
	feature := NewFeature(new(mocks.Client), "test-bucket", zap.NewNop(), nil, testConfig())
	assert.False(t, feature.IsEnabled())
}
