package config

// These tests verify that we can properly configure the admin tool with
// YAML input.
import (
	"os"

	"github.com/stretchr/testify/assert"
	"testing"
)

// a valid service config entry
const VALID_SERVICE string = `
service:
  data_directory: /tmp
  log_level: debug
`

// a valid platform config entry
const VALID_PLATFORM string = `
platform:
  url: https://workspaces.example.org
  username: admin@example.org
  password: ${RWP_TEST_PASSWORD}
  timeout: 10
`

// tests whether config.Init reports an error for blank input
func TestInitRejectsBlankInput(t *testing.T) {
	b := []byte("")
	err := Init(b)
	assert.NotNil(t, err, "Blank config didn't trigger an error.")
}

// tests whether config.Init accepts a valid configuration
func TestInitAcceptsValidInput(t *testing.T) {
	os.Setenv("RWP_TEST_PASSWORD", "hunter2")
	err := Init([]byte(VALID_SERVICE + VALID_PLATFORM))
	assert.Nil(t, err, "Valid config triggered an error.")
	assert.Equal(t, "https://workspaces.example.org", Platform.URL)
	assert.Equal(t, "hunter2", Platform.Password,
		"Environment variable in config wasn't expanded.")
	assert.Equal(t, 10, Platform.Timeout)
	assert.Equal(t, "debug", Service.LogLevel)
}

// tests whether config.Init reports an error when no platform URL is given
func TestInitRejectsMissingURL(t *testing.T) {
	yaml := VALID_SERVICE + "platform:\n  username: admin@example.org\n"
	err := Init([]byte(yaml))
	assert.NotNil(t, err, "Config with no platform URL didn't trigger an error.")
}

// tests whether config.Init reports an error for a relative platform URL
func TestInitRejectsRelativeURL(t *testing.T) {
	yaml := VALID_SERVICE + "platform:\n  url: workspaces.example.org\n"
	err := Init([]byte(yaml))
	assert.NotNil(t, err, "Config with a relative platform URL didn't trigger an error.")
}

// tests whether config.Init reports an error for a bad timeout
func TestInitRejectsBadTimeout(t *testing.T) {
	yaml := VALID_SERVICE + `
platform:
  url: https://workspaces.example.org
  timeout: -5
`
	err := Init([]byte(yaml))
	assert.NotNil(t, err, "Config with a bad timeout didn't trigger an error.")
}

// tests whether config.Init reports an error for an unknown log level
func TestInitRejectsBadLogLevel(t *testing.T) {
	yaml := "service:\n  log_level: noisy\n" + VALID_PLATFORM
	err := Init([]byte(yaml))
	assert.NotNil(t, err, "Config with a bad log level didn't trigger an error.")
}
