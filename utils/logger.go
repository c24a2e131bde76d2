package utils

import (
	"log"
	"strings"
)

type LogLevel int

const (
	LogLevelError = LogLevel(1 << iota)
	LogLevelInfo
	LogLevelNotice
	LogLevelDebug
)

var GlobalLogLevel = LogLevelError | LogLevelInfo

// ParseLogLevel accepts a comma separated list such as "error,info,debug"
func ParseLogLevel(s string) (level LogLevel) {
	for _, v := range strings.Split(s, ",") {
		switch strings.TrimSpace(strings.ToLower(v)) {
		case "error":
			level |= LogLevelError
		case "info":
			level |= LogLevelInfo
		case "notice":
			level |= LogLevelNotice
		case "debug":
			level |= LogLevelDebug
		}
	}
	return level
}

func Errorf(format string, v ...any) {
	if GlobalLogLevel&LogLevelError == 0 {
		return
	}
	log.Printf(format, v...)
}

func Logf(format string, v ...any) {
	if GlobalLogLevel&LogLevelInfo == 0 {
		return
	}
	log.Printf(format, v...)
}

func Noticef(format string, v ...any) {
	if GlobalLogLevel&LogLevelNotice == 0 {
		return
	}
	log.Printf(format, v...)
}

func Debugf(format string, v ...any) {
	if GlobalLogLevel&LogLevelDebug == 0 {
		return
	}
	log.Printf(format, v...)
}
