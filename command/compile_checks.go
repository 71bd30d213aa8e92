package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[DispatchEventMessage]           = (*DispatchEventCommand)(nil)
	_ gocmd.Commander[InvalidateSubscriptionsMessage] = (*InvalidateSubscriptionsCommand)(nil)
)
