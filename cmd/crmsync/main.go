package main

import (
	"crmsync/cmd/crmsync/commands"
	"crmsync/pkg/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
