package main

import (
	"log"

	"github.com/LavaJover/shvark-payu-service/internal/app/setup"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	setup.App().Run()
}
