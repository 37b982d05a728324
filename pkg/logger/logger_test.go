package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncBeforeInitialize(t *testing.T) {
	assert.NoError(t, Sync())
}

func TestLoggerBeforeInitialize(t *testing.T) {
	assert.NotNil(t, Logger())
}

func TestInitializeRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, Initialize("loud"))
}
