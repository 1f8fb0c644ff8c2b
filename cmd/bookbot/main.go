// Command bookbot runs the bookstore Telegram bot.
package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/m3rciful/bookbot/core/cmd"
	"github.com/m3rciful/bookbot/internal/bot"
	"github.com/m3rciful/bookbot/internal/config"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	err := cmd.Run(cmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			cfg, err := config.Load(path)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: bot.Bootstrap,
	})
	if err != nil {
		log.Fatal(err)
	}
}
