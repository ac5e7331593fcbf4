package main

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/moffa90/go-espefuse/efuse"
)

// logger adapts logrus to efuse.Logger.
type logger struct {
	log *log.Logger
}

func newLogger(out io.Writer, debug bool) *logger {
	l := log.New()
	l.SetOutput(out)
	l.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	if debug {
		l.SetLevel(log.DebugLevel)
	}
	return &logger{log: l}
}

func (l *logger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l *logger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Info(msg)
}

func (l *logger) Error(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Error(msg)
}

// fields turns key-value pairs into logrus fields. A trailing key without a
// value is kept under "extra".
func fields(keysAndValues []interface{}) log.Fields {
	f := make(log.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		f[key] = keysAndValues[i+1]
	}
	if len(keysAndValues)%2 == 1 {
		f["extra"] = keysAndValues[len(keysAndValues)-1]
	}
	return f
}

// progress logs burn progress at debug level.
func progress(l *logger) efuse.ProgressCallback {
	return func(p efuse.Progress) {
		l.log.WithFields(log.Fields{
			"phase":   p.Phase,
			"block":   p.Block,
			"done":    p.BlocksDone,
			"total":   p.TotalBlocks,
			"elapsed": p.ElapsedTime,
		}).Debugf("burn %.0f%%", p.Percentage)
	}
}
