package logging

import (
	"go.uber.org/zap"
)

// New builds the service logger. Development gets human-readable
// console output; everything else gets production JSON.
func New(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
