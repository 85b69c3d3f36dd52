package config

type Config interface {
	EnvConfig
	SecurityConfig
	OAuthConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDatabaseURL() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Security
	OAuth
}

func New() Config {
	return mainConfig{}
}
