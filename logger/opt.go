package logger

import "log"

// A LoggerOptFn is a functional option configuring a NestLogger when constructing a new one.
type LoggerOptFn func(*NestLogger)

// WithEnv sets the environment NestLogger is operating in.
func WithEnv(env string) func(*NestLogger) {
	return func(l *NestLogger) {
		l.env = env
	}
}

// WithLevel sets the log level NestLogger uses.
func WithLevel(level LogLevel) func(*NestLogger) {
	return func(l *NestLogger) {
		l.ll = level
	}
}

// WithLogger sets the log.Logger NestLogger uses.
func WithLogger(log *log.Logger) func(*NestLogger) {
	return func(l *NestLogger) {
		l.l = log
	}
}

// WithSkip sets the number of frames in the call stack
// to skip in order to log the desired file and line number
// of the calling code.
func WithSkip(skip int) func(*NestLogger) {
	return func(l *NestLogger) {
		l.skip = skip
	}
}
