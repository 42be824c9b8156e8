package log

import (
	"io"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	auditMu     sync.RWMutex
	auditLogger = newDiscardAudit()
	auditFile   *lumberjack.Logger
)

func newDiscardAudit() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func setupAudit(opts Options) error {
	file := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, "audit.log"),
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}

	l := logrus.New()
	l.SetOutput(file)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05.000",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	auditMu.Lock()
	prev := auditFile
	auditLogger, auditFile = l, file
	auditMu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	return nil
}

func closeAudit() error {
	auditMu.Lock()
	f := auditFile
	auditLogger, auditFile = newDiscardAudit(), nil
	auditMu.Unlock()
	if f == nil {
		return nil
	}
	return f.Close()
}

// Audit returns the audit logger. Configuration changes are recorded here as
// one JSON line each. Before SetupLogger it discards everything.
func Audit() *logrus.Logger {
	auditMu.RLock()
	defer auditMu.RUnlock()
	return auditLogger
}

// AuditEvent records a configuration change made by userID in guildID.
func AuditEvent(action, guildID, userID string, fields logrus.Fields) {
	entry := Audit().WithFields(logrus.Fields{
		"action":   action,
		"guild_id": guildID,
		"user_id":  userID,
	})
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Info("config change")
}
