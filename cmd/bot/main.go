package main

import (
	"os"

	// Embedded IANA database so member timezones resolve on minimal images.
	_ "time/tzdata"

	"birthday_notification_bot/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
