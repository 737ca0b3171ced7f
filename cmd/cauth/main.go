package main

import (
	"log"

	"github.com/Jager4561/car-case-auth/cmd/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
