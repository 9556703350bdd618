package main

import (
	"os"

	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/learnhub/app"
)

func main() {
	// The role comes from the first argument, else from SERVICE
	service := ""
	if len(os.Args) > 1 {
		service = os.Args[1]
	}

	if err := app.SetupAndRunServer(service); err != nil {
		log.Fatal(err)
	}
}
