package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

// Init configures the global logger. Development gets a colorized console
// writer at debug level; anything else logs JSON at info level.
func Init(env string) {
	zerolog.TimeFieldFormat = time.RFC3339

	if env == "development" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Logger()
		return
	}

	log = zerolog.New(os.Stderr).
		Level(zerolog.InfoLevel).
		With().Timestamp().Logger()
}

func Debug(msg string, args ...any) { emit(log.Debug(), msg, args) }
func Info(msg string, args ...any)  { emit(log.Info(), msg, args) }
func Warn(msg string, args ...any)  { emit(log.Warn(), msg, args) }
func Error(msg string, args ...any) { emit(log.Error(), msg, args) }

func Fatal(msg string, args ...any) {
	emit(log.Fatal(), msg, args)
}

// emit accepts alternating key/value pairs; bare error values are attached
// under the "error" key so call sites can pass an error directly.
func emit(ev *zerolog.Event, msg string, args []any) {
	for i := 0; i < len(args); {
		if err, ok := args[i].(error); ok {
			ev = ev.AnErr("error", err)
			i++
			continue
		}
		if key, ok := args[i].(string); ok && i+1 < len(args) {
			ev = ev.Interface(key, args[i+1])
			i += 2
			continue
		}
		ev = ev.Interface("arg", args[i])
		i++
	}
	ev.Msg(msg)
}
