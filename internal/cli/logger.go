// Package cli provides the command-line interface for cadence.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/cadencelabs/cadence/internal/constants"
	"github.com/cadencelabs/cadence/internal/logging"
)

// LogFileWriter holds the log file writer for cleanup purposes.
// This is package-level to enable cleanup during shutdown.
var logFileWriter io.WriteCloser //nolint:gochecknoglobals // Needed for cleanup

// zerologGlobalMu protects concurrent writes to the zerolog global logger.
// This is separate from globalLoggerMu to avoid deadlocks.
var zerologGlobalMu sync.Mutex //nolint:gochecknoglobals // Protects zerolog global

// loggerSetup holds the common components needed to create a logger.
type loggerSetup struct {
	level      zerolog.Level
	hook       zerolog.Hook
	fileWriter io.WriteCloser
	console    io.Writer
}

// prepareLoggerSetup creates the common logger components.
// Returns the setup and any error from file writer creation.
// The error is non-fatal - callers can proceed with console-only logging.
func prepareLoggerSetup(verbose, quiet bool) (*loggerSetup, error) {
	setup := &loggerSetup{
		level:   selectLevel(verbose, quiet),
		hook:    logging.NewSensitiveDataHook(),
		console: selectOutput(),
	}

	fileWriter, err := createLogFileWriter()
	if err == nil {
		setup.fileWriter = fileWriter
	}
	return setup, err
}

// buildLogger creates a zerolog.Logger from the setup and writer.
func buildLogger(setup *loggerSetup, writer io.Writer) zerolog.Logger {
	return zerolog.New(writer).Level(setup.level).Hook(setup.hook).With().Timestamp().Logger()
}

// InitLogger creates and configures a zerolog.Logger based on verbosity flags.
//
// Log levels are set as follows:
//   - verbose=true: Debug level (most detailed)
//   - quiet=true: Warn level (errors and warnings only)
//   - default: Info level (normal operation)
//
// Output format is determined by the terminal:
//   - TTY with colors enabled: Console writer with timestamps
//   - Non-TTY or NO_COLOR set: JSON output to stderr
//
// The logger also writes to ~/.cadence/logs/cadence.log with rotation enabled.
// If the log file cannot be created, the logger will continue with console-only output.
func InitLogger(verbose, quiet bool) zerolog.Logger {
	setup, err := prepareLoggerSetup(verbose, quiet)

	var writer io.Writer
	if err != nil || setup.fileWriter == nil {
		// Log file creation failed; continue with console-only output
		writer = setup.console
	} else {
		// Store file writer for cleanup
		logFileWriter = setup.fileWriter
		// Multi-writer: console + file
		writer = zerolog.MultiLevelWriter(setup.console, setup.fileWriter)
	}

	logger := buildLogger(setup, writer)
	setGlobalLogger(logger)
	return logger
}

// setGlobalLogger configures the global zerolog logger to match our CLI logger config.
// This ensures that any code using log.Debug(), log.Info(), etc. from the
// github.com/rs/zerolog/log package uses the same formatting as our CLI logger.
// This function is safe for concurrent use.
func setGlobalLogger(cliLogger zerolog.Logger) {
	zerologGlobalMu.Lock()
	defer zerologGlobalMu.Unlock()
	log.Logger = cliLogger
}

// InitLoggerWithWriter creates and configures a zerolog.Logger with a custom writer.
// This is primarily intended for testing purposes.
func InitLoggerWithWriter(verbose, quiet bool, w io.Writer) zerolog.Logger {
	level := selectLevel(verbose, quiet)
	hook := logging.NewSensitiveDataHook()
	logger := zerolog.New(w).Level(level).Hook(hook).With().Timestamp().Logger()

	// Configure global logger to match CLI logger settings
	setGlobalLogger(logger)

	return logger
}

// CloseLogFile closes the global log file writer if it was opened.
// This should be called during application shutdown for clean cleanup.
func CloseLogFile() {
	if logFileWriter != nil {
		_ = logFileWriter.Close()
		logFileWriter = nil
	}
}

// selectLevel determines the appropriate log level based on flags.
func selectLevel(verbose, quiet bool) zerolog.Level {
	switch {
	case verbose:
		return zerolog.DebugLevel
	case quiet:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

// selectOutput determines the appropriate output writer based on
// terminal capabilities and environment settings.
func selectOutput() io.Writer {
	// Use console writer for TTY without NO_COLOR
	if term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("NO_COLOR") == "" {
		return zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
		}
	}

	// Default to JSON output for non-TTY or when NO_COLOR is set
	return os.Stderr
}

// filteringWriteCloser wraps a WriteCloser with sensitive data filtering.
// It implements io.WriteCloser so it can be used as a drop-in replacement.
type filteringWriteCloser struct {
	filter *logging.FilteringWriter
	closer io.Closer
}

// Write implements io.Writer by delegating to the filtering writer.
func (fwc *filteringWriteCloser) Write(p []byte) (n int, err error) {
	return fwc.filter.Write(p)
}

// Close implements io.Closer by delegating to the underlying closer.
func (fwc *filteringWriteCloser) Close() error {
	return fwc.closer.Close()
}

// createLogFileWriter creates a rotating file writer for the global CLI log.
// Returns a lumberjack logger configured with rotation settings, wrapped with
// a filtering writer to ensure sensitive data is never written to disk.
func createLogFileWriter() (io.WriteCloser, error) {
	home, err := cadenceHome()
	if err != nil {
		return nil, err
	}

	logDir := filepath.Join(home, constants.LogsDir)
	logPath := filepath.Join(logDir, constants.CLILogFileName)

	// Ensure log directory exists
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// Create rotating log file writer
	lj := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    constants.LogMaxSizeMB,
		MaxBackups: constants.LogMaxBackups,
		MaxAge:     constants.LogMaxAgeDays,
		Compress:   constants.LogCompress,
	}

	// Wrap with filtering writer to redact sensitive data
	return &filteringWriteCloser{
		filter: logging.NewFilteringWriter(lj),
		closer: lj,
	}, nil
}

// cadenceHome returns the cadence home directory path.
// If the CADENCE_HOME environment variable is set, it uses that.
// Otherwise, it defaults to ~/.cadence.
func cadenceHome() (string, error) {
	if home := os.Getenv("CADENCE_HOME"); home != "" {
		return home, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, constants.CadenceHome), nil
}

// LogFilePath returns the path to the global CLI log file.
// This is useful for displaying the log location to users.
func LogFilePath() (string, error) {
	home, err := cadenceHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, constants.LogsDir, constants.CLILogFileName), nil
}
