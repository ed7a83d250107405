package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"rssreader/internal/interfaces/cmd"
)

func main() {
	if err := cmd.RootApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
