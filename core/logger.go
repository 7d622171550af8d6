package core

// Logger is the app-wide leveled logger. Implementations may fan entries out
// to an error tracker in addition to stdout.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
