package main

import (
	"log"

	"github.com/talentboard/job-portal/internal/application"
	"github.com/talentboard/job-portal/internal/authoriser"
	"github.com/talentboard/job-portal/internal/config"
	"github.com/talentboard/job-portal/internal/database"
	"github.com/talentboard/job-portal/internal/handler"
	"github.com/talentboard/job-portal/internal/job"
	"github.com/talentboard/job-portal/internal/media"
	"github.com/talentboard/job-portal/internal/server"
	"github.com/talentboard/job-portal/internal/user"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading configuration from the environment")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("unable to load config: %+v", err)
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
	if err := database.Migrate(conn); err != nil {
		log.Fatalf("unable to apply schema: %v", err)
	}
	host, err := media.NewCloudinary(cfg.CloudinaryURL)
	if err != nil {
		log.Fatalf("unable to configure cloudinary: %v", err)
	}

	svr := server.NewServer(cfg, conn, mux.NewRouter())
	handler.RegisterRoutes(svr, handler.Deps{
		Users:        user.NewRepository(conn),
		Jobs:         job.NewRepository(conn),
		Applications: application.NewRepository(conn),
		Media:        media.NewRelay(host, cfg.MaxUploadSize),
		Auth:         authoriser.NewAuthoriser(cfg),
		DB:           conn,
	})

	log.Fatal(svr.Run())
}
