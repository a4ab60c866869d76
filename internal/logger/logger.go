// Package logger is the module's console logger. Messages are emitted through
// logrus; structured arguments are rendered with kr/pretty.
package logger

import (
	"bufio"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/kr/pretty"
	log "github.com/sirupsen/logrus"
)

// EnvLogLevel names the environment variable read by Initialize.
const EnvLogLevel = "MODELGRAPH_LOGLEVEL"

// Initialize configures the console logger from MODELGRAPH_LOGLEVEL
// ("debug" or "trace"; anything else logs errors only).
func Initialize() {
	switch os.Getenv(EnvLogLevel) {
	case "debug":
		SetConsoleLogger(log.DebugLevel)
	case "trace":
		SetConsoleLogger(log.TraceLevel)
	default:
		SetConsoleLogger(log.ErrorLevel)
	}
}

func SetConsoleLogger(level log.Level) {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	log.SetLevel(level)
}

func IsTraceEnabled() bool { return log.IsLevelEnabled(log.TraceLevel) }

func TraceMessage(format string, v ...interface{}) {
	if log.IsLevelEnabled(log.TraceLevel) {
		logMultiLine(fmt.Sprintf(format, preFormatArgs(v)...), log.TraceLevel)
	}
}

func DebugMessage(format string, v ...interface{}) {
	if log.IsLevelEnabled(log.DebugLevel) {
		logMultiLine(fmt.Sprintf(format, preFormatArgs(v)...), log.DebugLevel)
	}
}

func WarnMessage(format string, v ...interface{}) {
	if log.IsLevelEnabled(log.WarnLevel) {
		logMultiLine(fmt.Sprintf(format, preFormatArgs(v)...), log.WarnLevel)
	}
}

func ErrorMessage(format string, v ...interface{}) {
	if log.IsLevelEnabled(log.ErrorLevel) {
		logMultiLine(fmt.Sprintf(format, preFormatArgs(v)...), log.ErrorLevel)
	}
}

func preFormatArgs(v []interface{}) []interface{} {
	vv := make([]interface{}, 0, len(v))
	for _, o := range v {
		switch reflect.ValueOf(o).Kind() {
		case reflect.Struct, reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Array, reflect.Map:
			vv = append(vv, pretty.Formatter(o))
		default:
			vv = append(vv, o)
		}
	}
	return vv
}

func logMultiLine(message string, level log.Level) {
	entry := log.WithTime(time.Now())
	s := bufio.NewScanner(strings.NewReader(message))
	for s.Scan() {
		entry.Log(level, s.Text())
	}
}
