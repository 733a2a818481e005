package main

import (
	"context"
	"os"
	"strings"

	"github.com/matheuscscp/obrawiser/internal/checkai"

	"github.com/sirupsen/logrus"
)

func main() {
	text := strings.Join(os.Args[1:], " ")
	if err := checkai.Run(context.Background(), os.Stdout, text); err != nil {
		logrus.Fatalf("ai check failed: %v", err)
	}
	logrus.Info("ai check succeeded")
}
