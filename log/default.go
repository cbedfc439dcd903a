package log

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
)

// DefaultLogger returns the logger used when no other implementation is specified
func DefaultLogger() Logger {
	return &defaultLogger{
		internalLogger: log.New(os.Stdout, "[sagabus] ", log.Ldate|log.Ltime|log.Lmicroseconds),
		level:          InfoLevel,
	}
}

type defaultLogger struct {
	internalLogger *log.Logger
	level          Level
	fields         Fields
}

func (l defaultLogger) Log(level Level, v ...interface{}) {
	if level == FatalLevel {
		l.internalLogger.Fatal(l.withFieldsSuffix(fmt.Sprint(v...)))
		return
	}

	if level == PanicLevel {
		l.internalLogger.Panic(l.withFieldsSuffix(fmt.Sprint(v...)))
		return
	}

	if level <= l.level {
		if err := l.internalLogger.Output(3, l.withFieldsSuffix(fmt.Sprint(v...))); err != nil {
			l.internalLogger.Printf("err logging an entry: %s. %s\n", err, v)
		}
	}
}

func (l defaultLogger) Logf(level Level, template string, args ...interface{}) {
	l.Log(level, fmt.Sprintf(template, args...))
}

func (l *defaultLogger) SetLevel(level Level) {
	l.level = level

	l.internalLogger.SetPrefix(fmt.Sprintf("[sagabus] %s ", levelNames[level]))
}

func (l *defaultLogger) WithFields(fields Fields) Logger {
	merged := make(Fields, len(l.fields)+len(fields))

	for k, v := range l.fields {
		merged[k] = v
	}

	for k, v := range fields {
		merged[k] = v
	}

	return &defaultLogger{
		internalLogger: l.internalLogger,
		level:          l.level,
		fields:         merged,
	}
}

func (l defaultLogger) withFieldsSuffix(msg string) string {
	if len(l.fields) == 0 {
		return msg
	}

	pairs := make([]string, 0, len(l.fields))
	for k, v := range l.fields {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, v))
	}

	sort.Strings(pairs)

	return msg + " " + strings.Join(pairs, " ")
}
