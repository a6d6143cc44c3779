// Command mcpot runs a Minecraft honeypot that records every client
// which pings or tries to log in.
package main

import (
	"context"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("mcpot failed")
	}
}
