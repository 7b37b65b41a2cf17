package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"vedchat/internal/app"
	"vedchat/internal/route"
	"vedchat/internal/session"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	openFlag := flag.String("open", "", "location to open, e.g. conversation/<id>")
	flag.Parse()

	// Local .env may carry VEDCHAT_API_TOKEN or ANTHROPIC_API_KEY.
	_ = godotenv.Load()

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	params := app.Params{SessionName: sessionName}
	if *openFlag != "" {
		id, ok := route.ConversationFor(*openFlag)
		if !ok {
			fmt.Fprintf(os.Stderr, "error: not a conversation location: %q\n", *openFlag)
			os.Exit(1)
		}
		params.OpenTopicID = id
	}

	fx.New(app.Module(params)).Run()
}
