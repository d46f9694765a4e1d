package main

import (
	"errors"
	"log"
)

var (
	GitCommit string
	GitTag    string
	BuildTime string
)

func main() {
	app, err := NewApp()
	var cerr *ConfigError
	if errors.As(err, &cerr) {
		log.Fatalf("application failed to initialized: set %s in config.yml or the %s environment variable", cerr.Field, cerr.Env)
	}
	if err != nil {
		log.Fatal("application failed to initialized: ", err)
	}
	err = app.Run()
	if err != nil {
		log.Fatal("application exited. check logs for more details.", err)
	}
}
