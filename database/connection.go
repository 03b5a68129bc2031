package database

import (
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB is the bot's own database: sessions, transcripts, searches, carts.
var DB *gorm.DB

// ValeryDB is the external ERP database. Read-mostly; the ERP owns the
// schema, so it is never migrated from here.
var ValeryDB *gorm.DB

// Connect opens the bot database.
func Connect() {
	var err error
	DB, err = gorm.Open(postgres.Open(dsnFromEnv("DB")), &gorm.Config{})
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		panic(err)
	}
	log.Println("✅ Database connected successfully!")
}

// ConnectValery opens the ERP database.
func ConnectValery() {
	var err error
	ValeryDB, err = gorm.Open(postgres.Open(dsnFromEnv("VALERY_DB")), &gorm.Config{})
	if err != nil {
		log.Printf("Failed to connect to Valery database: %v", err)
		panic(err)
	}
	log.Println("✅ Valery ERP database connected successfully!")
}

func dsnFromEnv(prefix string) string {
	host := os.Getenv(prefix + "_HOST")
	if host == "" {
		host = "localhost"
	}
	user := os.Getenv(prefix + "_USER")
	if user == "" {
		user = "postgres"
	}
	pass := os.Getenv(prefix + "_PASS")
	name := os.Getenv(prefix + "_NAME")
	if name == "" {
		name = "gomezbot"
	}
	port := os.Getenv(prefix + "_PORT")
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		host, user, pass, name, port)
}
