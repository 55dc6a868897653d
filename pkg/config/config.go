package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config is a portprobe-config.yaml helper implementation
type Config struct {
	ConfigVersion string `yaml:"version"`
	Concurrency   int    `yaml:"concurrency"`
	Timeout       int    `yaml:"timeout"`
	Proxy         string `yaml:"proxy"`
	LogFile       string `yaml:"log_file"`
}

const portprobeConfigFilename = "portprobe-config.yaml"
const Version = "1.0.0"

// NewConfig reads the configuration at path, or at the default location
// when path is empty. A missing file is created with default values.
func NewConfig(path string) (*Config, error) {
	if path == "" {
		p, err := getConfigFile()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := WriteConfiguration(path, defaultConfig()); err != nil {
			return nil, err
		}
	}
	return ReadConfiguration(path)
}

func defaultConfig() *Config {
	return &Config{
		ConfigVersion: Version,
		Concurrency:   DefaultConcurrency,
		Timeout:       DefaultTimeout,
		Proxy:         "",
		LogFile:       DefaultLogFile,
	}
}

func getConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "could not get home directory")
	}
	configDir := filepath.Join(homeDir, ".config", "portprobe")
	return filepath.Join(configDir, portprobeConfigFilename), nil
}

// ReadConfiguration reads the portprobe configuration file from disk.
func ReadConfiguration(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not open config file")
	}
	defer file.Close()

	config := &Config{}
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, errors.Wrapf(err, "could not parse config file %s", path)
	}
	return config, nil
}

// WriteConfiguration writes the portprobe configuration to disk
func WriteConfiguration(path string, config *Config) error {
	configYAML, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	_ = os.MkdirAll(filepath.Dir(path), 0755)

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrap(err, "could not create config file")
	}
	defer file.Close()

	if _, err := file.Write(configYAML); err != nil {
		return err
	}
	return nil
}
