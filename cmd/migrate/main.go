package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/talentboard/job-portal/internal/config"
	"github.com/talentboard/job-portal/internal/database"

	"github.com/joho/godotenv"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "print the schema statements without applying them")
	flag.Parse()

	if *dryRun {
		for _, stmt := range database.Statements() {
			fmt.Printf("%s;\n\n", stmt)
		}
		return
	}

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading configuration from the environment")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("unable to load config %v", err)
	}
	conn, err := database.GetDbConn(
		cfg.DatabaseUser,
		cfg.DatabasePassword,
		cfg.DatabaseHost,
		cfg.DatabasePort,
		cfg.DatabaseName,
		cfg.DatabaseSSLMode,
	)
	if err != nil {
		log.Fatalf("unable to connect to postgres: %v", err)
	}
	defer database.CloseDbConn(conn)

	log.Printf("applying %d schema statements", len(database.Statements()))
	if err := database.Migrate(conn); err != nil {
		log.Fatal(err)
	}
	log.Println("schema up to date")
}
