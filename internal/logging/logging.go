// Package logging builds the zerolog logger shared by the bot and the CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the level, the output format and an optional rotated file.
type Options struct {
	Level  string
	Format string // console or json
	File   string
}

// New returns a logger writing to w and, when opts.File is set, to a rotated
// JSON file as well. The returned closer releases the file.
func New(w io.Writer, opts Options) (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	var out io.Writer
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime}
	case "json":
		out = w
	default:
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("unsupported log format %q", opts.Format)
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    20, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(out, file)
		closer = file
	}

	log := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return log, closer, nil
}

// Must is New for main packages: a bad option falls back to info on stderr.
func Must(opts Options) (zerolog.Logger, io.Closer) {
	log, closer, err := New(os.Stderr, opts)
	if err != nil {
		log, closer, _ = New(os.Stderr, Options{})
		log.Warn().Err(err).Msg("Invalid logging options, using defaults")
	}
	return log, closer
}

// ParseLevel accepts zerolog level names and "warning". Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return zerolog.InfoLevel, nil
	case "warning":
		return zerolog.WarnLevel, nil
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("unsupported log level %q", s)
	}
	return level, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
