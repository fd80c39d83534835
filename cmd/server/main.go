package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dmitrijs2005/mediagate/internal/buildinfo"
	"github.com/dmitrijs2005/mediagate/internal/flagx"
	"github.com/dmitrijs2005/mediagate/internal/server"
	"github.com/dmitrijs2005/mediagate/internal/server/auth"
	"github.com/dmitrijs2005/mediagate/internal/server/config"
)

// guardSubject returns the value of -g, which prints a bearer token for the
// issuer guard instead of starting the server.
func guardSubject() string {
	var subject string
	fs := flag.NewFlagSet("guard", flag.ContinueOnError)
	fs.StringVar(&subject, "g", "", "print an issuer bearer token for this subject and exit")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-g"}))
	return subject
}

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	if subject := guardSubject(); subject != "" {
		if cfg.AuthSecretKey == "" {
			log.Fatal("issuer guard secret is not configured")
		}
		tok, err := auth.GenerateToken(subject, []byte(cfg.AuthSecretKey), 24*time.Hour)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(tok)
		return
	}

	buildinfo.PrintBuildData(os.Stdout)

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		os.Exit(1)
	}
}
