package config

import "strings"

type EnvVars struct {
	Port     string `yaml:"port" env:"PORT"`
	AppName  string `yaml:"app_name" env:"APP_NAME"`
	Env      string `yaml:"env" env:"ENV"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL"`
}

var _ EnvConfig = EnvVars{}

func defaultEnvVars() EnvVars {
	return EnvVars{
		Port:     "8080",
		AppName:  "Go Auth Session",
		Env:      "DEV",
		LogLevel: "info",
		BaseURL:  "http://localhost:8080",
	}
}

// GetPort returns the listen address, always prefixed with ':'
func (e EnvVars) GetPort() string {
	if e.Port == "" {
		return ":8080"
	}
	if !strings.HasPrefix(e.Port, ":") {
		return ":" + e.Port
	}
	return e.Port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return e.Env
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

// GetBaseURL returns the public base URL of the server (e.g., "https://app.example.com")
func (e EnvVars) GetBaseURL() string {
	return strings.TrimRight(e.BaseURL, "/")
}
