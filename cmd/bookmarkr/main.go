package main

import (
	"log"

	"github.com/patric-chuzhbe/bookmarkr/internal/app"
	"github.com/patric-chuzhbe/bookmarkr/internal/logger"
)

func main() {
	application, err := app.New()
	if err != nil {
		log.Fatalln("Unable to initialize the application:", err)
	}
	defer application.Close()

	if err := application.Run(); err != nil {
		logger.Log.Errorln("The application finished with error:", err)
	}
}
