// haikunft CLI - command line client for the haikunft API
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/eldtechnologies/haikunft/clients/go/haikunft"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	client, err := haikunft.NewClient(os.Getenv("HAIKUNFT_URL"))
	exitOnError(err)

	cmd := os.Args[1]
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	id := fs.String("id", "", "token id")
	adjective := fs.String("adjective", "", "style of the haiku")
	topic := fs.String("topic", "", "topic of the haiku")
	title := fs.String("title", "", "title of the haiku")
	text := fs.String("haiku", "", `haiku text, lines separated by " / "`)
	fs.Parse(os.Args[2:])

	ctx := context.Background()

	switch cmd {
	case "health":
		resp, err := client.Health(ctx)
		exitOnError(err)
		printJSON(resp)

	case "haiku":
		content, err := client.Haiku(ctx, *adjective, *topic)
		exitOnError(err)
		printLines(content)

	case "preview":
		requireFlag("id", *id)
		content, err := client.Preview(ctx, *id, *adjective, *topic)
		exitOnError(err)
		printLines(content)

	case "generate":
		requireFlag("id", *id)
		content, err := client.Generate(ctx, *id, *adjective, *topic)
		exitOnError(err)
		printLines(content)

	case "read":
		requireFlag("id", *id)
		content, err := client.Read(ctx, *id)
		exitOnError(err)
		printLines(content)

	case "media":
		requireFlag("title", *title)
		requireFlag("haiku", *text)
		url, err := client.Media(ctx, *title, *text)
		exitOnError(err)
		fmt.Println(url)

	case "set":
		requireFlag("id", *id)
		requireFlag("title", *title)
		requireFlag("haiku", *text)
		receipt, err := client.SetHaiku(ctx, *id, *title, *text)
		exitOnError(err)
		printJSON(receipt)

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`haikunft CLI

Usage: haikunft <command> [flags]

Commands:
  haiku [-adjective a] [-topic t]              Three haiku, unsigned
  preview -id <token> [-adjective a] [-topic t] Three haiku for a token you own
  generate -id <token> [-adjective a] [-topic t] Generate a token's haiku (once)
  read -id <token>                             Read a token's generated haiku
  media -title <t> -haiku <h>                  Render and upload artwork
  set -id <token> -title <t> -haiku <h>        Record a haiku on the ledger
  health                                       Check server health

Environment:
  HAIKUNFT_URL       Server URL (default: http://localhost:3000)
  HAIKUNFT_ACCOUNT   Account id that signs requests
  HAIKUNFT_KEY       Signing key, ed25519:<base58>`)
}

func requireFlag(name, value string) {
	if value == "" {
		fmt.Fprintf(os.Stderr, "-%s is required\n", name)
		os.Exit(1)
	}
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printLines(content []string) {
	for _, item := range content {
		fmt.Println(item)
	}
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
