package logging

import (
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Setup configures the global logger and gin's mode.
// format is "json" (default) or "text"; an unknown level falls back to info.
func Setup(level, format, ginMode string) {
	switch strings.ToLower(format) {
	case "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		log.SetFormatter(&log.JSONFormatter{})
	}
	log.SetOutput(os.Stdout)

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)

	switch ginMode {
	case gin.DebugMode, gin.TestMode:
		gin.SetMode(ginMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	if err != nil && level != "" {
		log.WithField("level", level).Warn("Unknown log level, using info")
	}
}
