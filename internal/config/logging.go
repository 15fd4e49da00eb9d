package config

import "os"

// LogConfig controls the process logger and the rotating file logs
// (user actions and mail delivery).
type LogConfig struct {
    Level string
    Dev   bool
    Dir   string
}

// LoadLogConfig reads LOG_LEVEL, LOG_DEV and LOG_DIR.  Development mode
// defaults to debug level, everything else to info.
func LoadLogConfig() LogConfig {
    dev := os.Getenv("LOG_DEV") == "1"
    lvl := os.Getenv("LOG_LEVEL")
    if lvl == "" {
        if dev {
            lvl = "debug"
        } else {
            lvl = "info"
        }
    }
    return LogConfig{Level: lvl, Dev: dev, Dir: envStr("LOG_DIR", "logs")}
}
