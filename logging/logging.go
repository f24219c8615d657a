package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

var (
	logger    = log.New(os.Stdout, "", log.LstdFlags)
	logFile   *os.File
	debugMode bool
	mu        sync.Mutex
	isSetup   bool
)

// SetupLogger routes log output to stdout and, when logFilePath is set, to an
// append-only log file. Debug lines are only written when debug is true.
func SetupLogger(logFilePath string, debug bool) error {
	mu.Lock()
	defer mu.Unlock()

	if isSetup {
		return nil
	}

	debugMode = debug
	writers := []io.Writer{os.Stdout}

	if logFilePath != "" {
		var err error
		logFile, err = os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, logFile)
	}

	logger = log.New(io.MultiWriter(writers...), "", log.LstdFlags)
	if logFile != nil {
		fmt.Fprintf(logFile, "--- foldersort log started at %s ---\n", time.Now().Format(time.RFC3339))
	}

	isSetup = true
	return nil
}

// SetOutput replaces the log destination. Tests use it to capture output.
func SetOutput(w io.Writer, debug bool) {
	mu.Lock()
	defer mu.Unlock()

	logger = log.New(w, "", 0)
	debugMode = debug
}

// CloseLogger closes the log file
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		fmt.Fprintf(logFile, "--- foldersort log closed at %s ---\n", time.Now().Format(time.RFC3339))
		logFile.Close()
		logFile = nil
	}
	logger = log.New(os.Stdout, "", log.LstdFlags)
	isSetup = false
}

// IsDebug reports whether debug logging is enabled
func IsDebug() bool {
	mu.Lock()
	defer mu.Unlock()
	return debugMode
}

// LogInfo logs an information message
func LogInfo(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	logger.Printf("INFO: "+format, args...)
}

// DebugLog logs a message if debug mode is enabled
func DebugLog(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if debugMode {
		logger.Printf("DEBUG: "+format, args...)
	}
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	logger.Printf("ERROR: "+format, args...)
}

// LogWarning logs a warning message
func LogWarning(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	logger.Printf("WARNING: "+format, args...)
}

// LogFileMoved logs the outcome of a single move
func LogFileMoved(src, dst string, err error) {
	mu.Lock()
	defer mu.Unlock()

	if err != nil {
		logger.Printf("FAILED: %s - Error: %v", src, err)
		return
	}
	logger.Printf("MOVED: %s -> %s", src, dst)
}
