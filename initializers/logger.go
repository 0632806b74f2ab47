package initializers

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger builds the process logger and installs it as zap's global, so
// every package logs through zap.S().
func InitLogger() {
	var cfg zap.Config
	if strings.ToLower(os.Getenv("APP_ENV")) == "prod" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		cfg.DisableStacktrace = true
	}

	logger, err := cfg.Build()
	if err != nil {
		logger = zap.NewExample()
	}
	zap.ReplaceGlobals(logger)
}
