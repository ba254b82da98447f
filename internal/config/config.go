package config

import (
	"os"
	"strconv"
	"time"
)

// Defaults mirror the hardware the lamp shipped with: a 30-pixel WS281x strip on
// GPIO 18 and a momentary button on GPIO 12.
const (
	DefaultDataDir      = "/var/lib/sunrised"
	DefaultSettingsFile = "alarm_settings.json"
	DefaultStateFile    = "state.json"
	DefaultHistoryFile  = "history.db"
)

// LEDConfig holds WS281x strip settings.
type LEDConfig struct {
	Count      int
	GPIO       int
	FreqHz     int
	DMA        int
	Brightness int
	Invert     bool
	Channel    int
}

// ButtonConfig holds GPIO button settings and press thresholds.
type ButtonConfig struct {
	GPIO         int
	SetupPress   time.Duration // hold this long to confirm a selection
	DisablePress time.Duration // hold this long in idle to disable the alarm
}

// AlarmConfig holds scheduling and storage settings for the alarm daemon.
type AlarmConfig struct {
	SettingsPath string
	StatePath    string
	HistoryDB    string
	LeadTime     time.Duration // sunrise starts this long before the wake time
	Tick         time.Duration // scheduler/button poll interval
	Profile      string        // built-in profile name
	ProfilePath  string        // optional YAML profile overriding Profile
	OpsAddr      string        // healthz/metrics/state listener
}

// WebConfig holds web interface settings.
type WebConfig struct {
	Port        string
	DisableHDMI bool // run `vcgencmd display_power 0` on startup
}

// AppConfig is the centralized configuration struct for sunrised.
// It is populated from environment variables.
type AppConfig struct {
	LogLevel string
	LED      LEDConfig
	Button   ButtonConfig
	Alarm    AlarmConfig
	Web      WebConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LED: LEDConfig{
			Count:      getEnvInt("LED_COUNT", 30),
			GPIO:       getEnvInt("LED_GPIO", 18),
			FreqHz:     getEnvInt("LED_FREQ_HZ", 800000),
			DMA:        getEnvInt("LED_DMA", 10),
			Brightness: getEnvInt("LED_BRIGHTNESS", 255),
			Invert:     getEnvBool("LED_INVERT", false),
			Channel:    getEnvInt("LED_CHANNEL", 0),
		},
		Button: ButtonConfig{
			GPIO:         getEnvInt("BUTTON_GPIO", 12),
			SetupPress:   getEnvDuration("BUTTON_SETUP_PRESS", time.Second),
			DisablePress: getEnvDuration("BUTTON_DISABLE_PRESS", 5*time.Second),
		},
		Alarm: AlarmConfig{
			SettingsPath: getEnv("ALARM_SETTINGS_PATH", DefaultDataDir+"/"+DefaultSettingsFile),
			StatePath:    getEnv("ALARM_STATE_PATH", DefaultDataDir+"/"+DefaultStateFile),
			HistoryDB:    getEnv("ALARM_HISTORY_DB", DefaultDataDir+"/"+DefaultHistoryFile),
			LeadTime:     getEnvDuration("ALARM_LEAD_TIME", 20*time.Minute),
			Tick:         getEnvDuration("ALARM_TICK", 50*time.Millisecond),
			Profile:      getEnv("ALARM_PROFILE", "sunrise"),
			ProfilePath:  getEnv("ALARM_PROFILE_PATH", ""),
			OpsAddr:      getEnv("OPS_ADDR", ":2112"),
		},
		Web: WebConfig{
			Port:        getEnv("WEB_PORT", "5000"),
			DisableHDMI: getEnvBool("WEB_DISABLE_HDMI", true),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
