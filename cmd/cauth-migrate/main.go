// cauth-migrate applies the embedded SQL migrations to DATABASE_URL.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"

	"github.com/Jager4561/car-case-auth/cmd/internal/app"
	"github.com/Jager4561/car-case-auth/cmd/internal/db"
)

type config struct {
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
}

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	envFile := flag.String("env-file", ".env", "Optional dotenv file")
	flag.Parse()

	if err := app.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintln(os.Stderr, "env:", err)
		os.Exit(1)
	}

	cfg, err := env.ParseAs[config]()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	if err := db.Migrate(cfg.DatabaseURL, *direction); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
	fmt.Println("migrate", *direction, "ok")
}
