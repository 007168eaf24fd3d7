package buildpipe

import (
	"os"

	"github.com/joho/godotenv"
)

// Environment variables reported at startup. None of them is validated or
// required at this layer; absence is logged and never fatal.
const (
	// EnvRunMode indicates the run mode (development, production, ...).
	EnvRunMode = "NODE_ENV"
	// EnvPort is the network port handed to the hosting process.
	EnvPort = "PORT"
	// EnvContentSpace identifies the content-management space.
	EnvContentSpace = "CONTENTFUL_SPACE_ID"
	// EnvContentToken is the content-management access credential.
	EnvContentToken = "CONTENTFUL_ACCESS_TOKEN"
	// EnvContentHost is the content-management API host.
	EnvContentHost = "CONTENTFUL_HOST"
)

// ReportEnv loads a .env file when one exists and logs the state of the
// variables the surrounding tooling cares about. Missing variables are
// warnings, never errors: downstream providers decide for themselves
// whether they can work without them.
func ReportEnv(logger Logger) {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	if err := godotenv.Load(); err == nil {
		logger.Debug("Loaded environment from .env")
	}

	for _, key := range []string{
		EnvRunMode,
		EnvPort,
		EnvContentSpace,
		EnvContentToken,
		EnvContentHost,
	} {
		value, ok := os.LookupEnv(key)
		if !ok || value == "" {
			logger.Warn("Environment variable %s is not set", key)
			continue
		}
		if key == EnvContentToken {
			logger.Debug("%s is set", key)
			continue
		}
		logger.Debug("%s=%s", key, value)
	}
}
