package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the service wide logrus instance.
var Logger = logrus.New()
var once sync.Once

const SystemName = "projects-service"

// CustomFormatter renders entries as a single line of comma separated fields.
type CustomFormatter struct {
	SystemName string
}

func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	b.WriteString(fmt.Sprintf("Date: %s, Time: %s, ", entry.Time.Format("2006-01-02"), entry.Time.Format("15:04:05")))
	b.WriteString(fmt.Sprintf("Event Source: %s, ", f.SystemName))
	b.WriteString(fmt.Sprintf("Event Type: %s, ", strings.ToUpper(entry.Level.String())))
	b.WriteString(fmt.Sprintf("Event ID: %s, ", uuid.New().String()))
	b.WriteString(fmt.Sprintf("Message: %s", entry.Message))

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf(", %s: %v", k, entry.Data[k]))
		}
	}

	if entry.HasCaller() {
		b.WriteString(fmt.Sprintf(", Location: %s:%d in %s", filepath.Base(entry.Caller.File), entry.Caller.Line, entry.Caller.Function))
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// Options configures InitLogger.
type Options struct {
	File    string
	Level   string
	Console bool
}

// InitLogger points the global logger at a rotating file. Only the first
// call has an effect.
func InitLogger(opts Options) {
	once.Do(func() {
		if opts.File == "" {
			opts.File = "logs/projects.log"
		}
		if dir := filepath.Dir(opts.File); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				logrus.Fatalf("Event ID: LOG_DIR_CREATE_FAILED, Description: Failed to create log directory: %v", err)
			}
		}

		logFile := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}

		var out io.Writer = logFile
		if opts.Console {
			out = io.MultiWriter(logFile, os.Stdout)
		}

		level, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			level = logrus.InfoLevel
		}

		Logger.SetOutput(out)
		Logger.SetFormatter(&CustomFormatter{SystemName: SystemName})
		Logger.SetLevel(level)
		Logger.SetReportCaller(true)

		Logger.Infof("Event ID: LOGGER_INITIALIZED, Description: Logger initialized for %s, output to: %s", SystemName, logFile.Filename)
	})
}
