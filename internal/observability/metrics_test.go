package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type probe struct {
	ID   uint
	Name string
}

func TestRegisterGormMetrics_ObservesQueries(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, RegisterGormMetrics(db))
	require.NoError(t, db.AutoMigrate(&probe{}))

	before := testutil.CollectAndCount(DatabaseQueryLatency)
	require.NoError(t, db.Create(&probe{Name: "a"}).Error)
	var out []probe
	require.NoError(t, db.Find(&out).Error)

	assert.Greater(t, testutil.CollectAndCount(DatabaseQueryLatency), before)
	assert.Len(t, out, 1)
}

func TestBlobResult(t *testing.T) {
	assert.Equal(t, "ok", BlobResult(nil))
	assert.Equal(t, "error", BlobResult(errors.New("x")))
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "cadence-test"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(t.Context()))
}
