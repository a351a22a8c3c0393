package logger

import (
	"log"
	"os"
)

type Logger interface {
	Info(v ...interface{})
	Warn(v ...interface{})
	Error(v ...interface{})
	Fatal(v ...interface{})
}

type logger struct {
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
}

func (l *logger) Info(v ...interface{}) {
	l.infoLogger.Println(v...)
}

func (l *logger) Warn(v ...interface{}) {
	l.warnLogger.Println(v...)
}

func (l *logger) Error(v ...interface{}) {
	l.errorLogger.Println(v...)
}

func (l *logger) Fatal(v ...interface{}) {
	l.errorLogger.Println(v...)
	os.Exit(1)
}

func NewLogger(prefix string) Logger {
	return &logger{
		infoLogger:  log.New(log.Writer(), prefix+" INFO ", log.Lmsgprefix),
		warnLogger:  log.New(log.Writer(), prefix+" WARN ", log.Lmsgprefix),
		errorLogger: log.New(os.Stderr, prefix+" ERROR ", log.Lmsgprefix),
	}
}
