package core

// Logger is the leveled logger used across the app.
// expected args: error | map[string]interface{} | Person
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies the authenticated owner an event is logged for.
type Person struct {
	ID    string
	Email string
}
