// Package logging builds the zap logger every service in the pipeline
// shares, following document-chunker's and unified-rag-service's
// bootstrap.
package logging

import "go.uber.org/zap"

// New returns a production JSON logger outside of "development", and a
// console-encoded logger in it.
func New(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Must panics if the logger cannot be constructed, for use at process
// startup where there is no sensible fallback.
func Must(env string) *zap.Logger {
	logger, err := New(env)
	if err != nil {
		panic(err)
	}
	return logger
}
