package main

import (
	// Registers RequestExceededDuration so slow request reports can be listed.
	_ "github.com/dmitrymomot/messaging/core/behavior"

	"github.com/dmitrymomot/messaging/integration/outbox/outboxcli"
)

func main() {
	outboxcli.Execute()
}
