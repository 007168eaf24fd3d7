package buildpipe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportEnvWarnsOnMissingVariables(t *testing.T) {
	for _, key := range []string{EnvRunMode, EnvPort, EnvContentSpace, EnvContentToken, EnvContentHost} {
		t.Setenv(key, "")
	}

	logger := NewRecordingLogger()
	ReportEnv(logger)

	warnings := strings.Join(logger.Level("warn"), "\n")
	for _, key := range []string{EnvRunMode, EnvPort, EnvContentSpace, EnvContentToken, EnvContentHost} {
		assert.Contains(t, warnings, key)
	}
}

func TestReportEnvDoesNotLeakCredentials(t *testing.T) {
	t.Setenv(EnvContentToken, "secret-token")

	logger := NewRecordingLogger()
	ReportEnv(logger)

	for _, lines := range logger.Lines {
		for _, line := range lines {
			assert.NotContains(t, line, "secret-token")
		}
	}
}

func TestReportEnvReportsPresentVariables(t *testing.T) {
	t.Setenv(EnvRunMode, "development")

	logger := NewRecordingLogger()
	ReportEnv(logger)

	assert.NotContains(t, strings.Join(logger.Level("warn"), "\n"), EnvRunMode)
	assert.Contains(t, strings.Join(logger.Level("debug"), "\n"), "development")
}
