package config

import (
	"go.uber.org/zap"
)

// InitLogger builds a development logger for APP_ENV=development and a
// production logger otherwise.
func InitLogger(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
