package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/tapechat/cmd/tapechat/ask"
	chatcmder "github.com/papercomputeco/tapechat/cmd/tapechat/chat"
	servecmder "github.com/papercomputeco/tapechat/cmd/tapechat/serve"
	settingscmder "github.com/papercomputeco/tapechat/cmd/tapechat/settings"
)

const rootLongDesc string = `tapechat is a minimal chat client for tapechat-compatible servers.

It sends each message as one POST /api/v1/chat request, shows the reply
with its tool and latency metadata, and remembers your bearer token and
user id between sessions.`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:          "tapechat",
		Short:        "Chat with a tapechat server",
		Long:         rootLongDesc,
		SilenceUsage: true,
	}

	root.AddCommand(
		chatcmder.NewChatCmd(),
		askcmder.NewAskCmd(),
		settingscmder.NewSettingsCmd(),
		servecmder.NewServeCmd(),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
