// Package logging provides zap logger helpers.
package logging

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/JakeFAU/jobparser/internal/job"
)

// ServiceName tags every entry emitted by loggers built with New.
const ServiceName = "jobparser"

// New builds a zap.Logger configured for development or production.
func New(development bool) (*zap.Logger, error) {
	fields := zap.Fields(zap.String("service", ServiceName))
	if development {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		logger, err := cfg.Build(fields)
		if err != nil {
			return nil, fmt.Errorf("build dev logger: %w", err)
		}
		return logger, nil
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.TimeKey = "ts"
	logger, err := cfg.Build(fields)
	if err != nil {
		return nil, fmt.Errorf("build prod logger: %w", err)
	}
	return logger, nil
}

// ErrorFields expands err into zap fields. Typed pipeline errors also carry
// their kind and the stack captured where they were raised.
func ErrorFields(err error) []zap.Field {
	if err == nil {
		return nil
	}
	fields := []zap.Field{zap.Error(err)}
	var jerr *job.Error
	if errors.As(err, &jerr) {
		fields = append(fields, zap.String("kind", string(jerr.Kind)))
		if len(jerr.Stack) > 0 {
			fields = append(fields, zap.ByteString("origin", jerr.Stack))
		}
	}
	return fields
}
