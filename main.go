package main

import (
	"github.com/mj1618/icepid/cmd"

	_ "github.com/mj1618/icepid/internal/platform/darwin"
)

func main() {
	cmd.Execute()
}
