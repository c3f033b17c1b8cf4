package main

import (
	"os"

	"github.com/Skotchmaster/coin_shop/cmd/rewardctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
