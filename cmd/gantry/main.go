package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := Execute(context.Background()); err != nil {
		logrus.WithError(err).Error("command failed")
		os.Exit(1)
	}
}
