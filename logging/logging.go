package logging

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

func init() {
	if os.Getenv("LOG_FORMAT") == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	}

	if s := os.Getenv("LOG_LEVEL"); s != "" {
		level, err := logrus.ParseLevel(s)
		if err != nil {
			logrus.Warnf("invalid LOG_LEVEL '%s', keeping %s: %v", s, logrus.GetLevel(), err)
			return
		}
		logrus.SetLevel(level)
	}
}
