package core

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// DefaultPort is the port the remote server binds when none is configured.
const DefaultPort = 49160

// Config contains all of the configuration options available to beefmote.
type Config struct {
	// Full path to file to which logs will be written. Blank will write to stdout.
	LogFilePath string `mapstructure:"log_file_path"`
	// Minimum level of a log required to be written. Options: debug, info, warn, error
	LogLevel string `mapstructure:"log_level"`

	RemoteServer struct {
		// Hostname or IP address on which the server will listen for connections.
		// Blank binds all interfaces.
		Hostname string `mapstructure:"hostname"`
		// Port on which the remote server will listen. 0 falls back to DefaultPort.
		Port int `mapstructure:"port"`
		// Default adjustment applied by the volume up/down commands.
		VolumeStep int `mapstructure:"volume_step"`
		// Default adjustment (seconds) applied by the seek commands.
		SeekStep int `mapstructure:"seek_step"`
	} `mapstructure:"remote_server"`

	Player struct {
		// Address of the MPD instance backing playback, e.g. localhost:6600.
		Address string `mapstructure:"address"`
		// Password for the MPD instance, if it requires one.
		Password string `mapstructure:"password"`
	} `mapstructure:"player"`

	Debugging struct {
		// Enable extra info-providing mechanisms for the server.
		PprofEnabled bool `mapstructure:"pprof_enabled"`
		// Port on which a pprof server will be started if debug mode is enabled.
		PprofPort int `mapstructure:"pprof_port"`
		// Log player events as they're received from the host.
		EventLoggingEnabled bool `mapstructure:"event_logging_enabled"`
	} `mapstructure:"debugging"`
}

const envVarPrefix = "BEEFMOTE"

// LoadConfig initializes Viper with the contents of the config file under configPath.
func LoadConfig(configPath string) *Config {
	viper.AddConfigPath(configPath)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix(envVarPrefix)
	viper.AutomaticEnv()

	viper.SetDefault("log_level", "info")
	viper.SetDefault("remote_server.port", DefaultPort)
	viper.SetDefault("remote_server.volume_step", 5)
	viper.SetDefault("remote_server.seek_step", 5)
	viper.SetDefault("player.address", "localhost:6600")

	if err := viper.ReadInConfig(); err != nil {
		if errors.Is(err, viper.ConfigFileNotFoundError{}) {
			fmt.Printf("error reading config file: no config file in path %s", configPath)
		} else {
			fmt.Printf("error reading config file: %v", err)
		}
		os.Exit(1)
	}

	// This allows us to set nested yaml config options through environment
	// variables. For example, remote_server.port can be set using: <envVarPrefix>_REMOTE_SERVER_PORT
	for _, k := range viper.AllKeys() {
		envVar := strings.ReplaceAll(strings.ToUpper(k), ".", "_")
		if err := viper.BindEnv(k, envVarPrefix+"_"+envVar); err != nil {
			fmt.Printf("error binding %s to %s", k, envVarPrefix+"_"+envVar)
			os.Exit(1)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		fmt.Printf("error unmarshaling config object: %v", err)
		os.Exit(1)
	}
	return config
}

// RemoteAddress returns the listen address for the remote server with the
// documented fallbacks applied: an empty hostname binds all interfaces and
// a zero port becomes DefaultPort.
func (c *Config) RemoteAddress() string {
	port := c.RemoteServer.Port
	if port == 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("%s:%d", c.RemoteServer.Hostname, port)
}
