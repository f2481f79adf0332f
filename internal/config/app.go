package config

// AppConfig bundles everything the game server reads from the
// environment: the HTTP/game tunables and the log settings.
type AppConfig struct {
	Server ServerConfig
	Log    LogConfig
}

// LoadApp parses both config groups in one call for the entrypoint.
func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server: serverCfg,
		Log:    logCfg,
	}, nil
}
