package prometheus

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

const (
	prefixKey     = "prefix"
	defaultPrefix = "global"
)

var (
	logEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "log_entries_total",
		Help: "Total number of log messages by level and logger prefix.",
	}, []string{"level", "prefix"})
	errPrefixNotString = errors.New("prefix is not a string")
)

// LogrusCollector is a logrus hook counting log entries of the chosen levels.
type LogrusCollector struct {
	levels []logrus.Level
}

// NewLogrusCollector returns a hook counting entries of levels, or of info and above when
// no level is given.
func NewLogrusCollector(levels ...logrus.Level) *LogrusCollector {
	if len(levels) == 0 {
		levels = []logrus.Level{logrus.InfoLevel, logrus.WarnLevel, logrus.ErrorLevel, logrus.FatalLevel}
	}
	return &LogrusCollector{levels: levels}
}

// Fire is called on every log call.
func (c *LogrusCollector) Fire(entry *logrus.Entry) error {
	prefix := defaultPrefix
	if value, ok := entry.Data[prefixKey]; ok {
		prefix, ok = value.(string)
		if !ok {
			return errPrefixNotString
		}
	}
	logEntries.WithLabelValues(entry.Level.String(), prefix).Inc()
	return nil
}

// Levels returns the levels the hook fires on.
func (c *LogrusCollector) Levels() []logrus.Level {
	return c.levels
}
