package main

import (
	"log"

	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/app"
)

func main() {
	app, err := app.NewApp()
	if err != nil {
		log.Fatal(err)
	}

	app.Run()
}
