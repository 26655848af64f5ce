/*
Copyright © 2025 chali-ug
*/
package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/chali-ug/chali-be/cmd"
)

func main() {
	cmd.Execute()
}

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded:", err)
	}
}
