package config

import (
	"fmt"
	"log"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// a type with parameters that configure the admin tool itself
type serviceConfig struct {
	// directory in which the tool keeps its journal and credential files
	DataDirectory string `json:"data_directory" yaml:"data_directory"`
	// base64-encoded fernet key used to decrypt the credential file
	// DO NOT STORE THIS IN A CONFIG FILE! Use an environment variable instead
	Secret string `json:"secret" yaml:"secret"`
	// log level for structured (slog) output ("debug", "info", "warn", "error")
	LogLevel string `json:"log_level" yaml:"log_level"`
}

// a type with connection parameters for the workspace platform
type platformConfig struct {
	// the API origin of the platform
	URL string `json:"url" yaml:"url"`
	// login credential; leave blank to use the encrypted credential file
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	// when true, mutating operations report their request bodies instead of
	// performing them
	DryRun bool `json:"dry_run" yaml:"dry_run"`
	// HTTP timeout in seconds for platform requests
	Timeout int `json:"timeout" yaml:"timeout"`
}

// global config variables
var Service serviceConfig
var Platform platformConfig

// This struct performs the unmarshalling from the YAML config file and then
// copies its fields to the globals above.
type configFile struct {
	Service  serviceConfig  `yaml:"service"`
	Platform platformConfig `yaml:"platform"`
}

// This helper reads configuration data, returning an error indicating
// success or failure. All environment variables of the form ${ENV_VAR} are
// expanded.
func readConfig(bytes []byte) error {
	// Before we do anything else, expand any provided environment variables.
	bytes = []byte(os.ExpandEnv(string(bytes)))

	var conf configFile
	conf.Service.LogLevel = "info"
	conf.Platform.Timeout = 30
	err := yaml.Unmarshal(bytes, &conf)
	if err != nil {
		log.Printf("Couldn't parse configuration data: %s\n", err)
		return err
	}

	// copy the config data into place
	Service = conf.Service
	Platform = conf.Platform

	return err
}

// This helper validates the given platform parameters, returning an error
// indicating success or failure.
func validatePlatformParameters(params platformConfig) error {
	if params.URL == "" {
		return fmt.Errorf("No platform URL was provided!")
	}
	u, err := url.Parse(params.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("Invalid platform URL: %s", params.URL)
	}
	if params.Timeout <= 0 {
		return fmt.Errorf("Invalid timeout: %d (must be positive)", params.Timeout)
	}
	return nil
}

// This helper validates the configuration, returning an error that indicates
// success or failure.
func validateConfig() error {
	err := validatePlatformParameters(Platform)
	if err != nil {
		return err
	}

	switch Service.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("Invalid log level: %s", Service.LogLevel)
	}
	return nil
}

// Initializes the admin tool's configuration using the given YAML byte data.
func Init(yamlData []byte) error {

	// Read the configuration from our YAML file.
	err := readConfig(yamlData)
	if err != nil {
		return err
	}

	// Validate the configuration.
	err = validateConfig()
	return err
}
