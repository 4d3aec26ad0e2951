package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestConfigureLoggingRejectsUnknownLevel(t *testing.T) {
	logLevel = "not-a-level"
	defer func() { logLevel = "info" }()

	err := configureLogging(&cobra.Command{}, nil)

	assert.Error(t, err)
}

func TestConfigureLoggingAcceptsKnownLevel(t *testing.T) {
	logLevel = "debug"
	defer func() { logLevel = "info" }()

	err := configureLogging(&cobra.Command{}, nil)

	assert.NoError(t, err)
}
