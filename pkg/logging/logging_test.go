package logging

import (
	"testing"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
)

func TestInitLoggerSetsLevel(t *testing.T) {
	assert.NoError(t, InitLogger("WARNING"))
	assert.False(t, logging.GetLevel("") >= logging.INFO)

	assert.NoError(t, InitLogger("DEBUG"))
	assert.Equal(t, logging.DEBUG, logging.GetLevel(""))
}

func TestInitLoggerRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, InitLogger("LOUD"))
}
