package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig           `mapstructure:"server"`
	Database DatabaseConfig         `mapstructure:"database"`
	Arenas   map[string]ArenaConfig `mapstructure:"arenas"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
	TickMillis     int    `mapstructure:"tick_millis"`
}

type DatabaseConfig struct {
	// Driver selects the stats backend: "gorm" (default) or "postgres".
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// ArenaConfig is the static definition of one arena as read from the config
// file. Spawn nodes use the "team_name_class" key format with
// "world,x,y,z,yaw,pitch" values.
type ArenaConfig struct {
	Goal             string                 `mapstructure:"goal"`
	Teams            map[string]string      `mapstructure:"teams"` // name -> color
	Lives            int                    `mapstructure:"lives"`
	MinPlayers       int                    `mapstructure:"min_players"`
	CountdownSeconds int                    `mapstructure:"countdown_seconds"`
	TimeLimitSeconds int                    `mapstructure:"time_limit_seconds"`
	TimerWinner      string                 `mapstructure:"timer_winner"`
	EndDelaySeconds  int                    `mapstructure:"end_delay_seconds"`
	Spawns           map[string]string      `mapstructure:"spawns"`
	Classes          map[string][]string    `mapstructure:"classes"`
	Goals            map[string]interface{} `mapstructure:"goal_settings"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
