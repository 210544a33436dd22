package main

import (
	"context"
	"log"

	"vehicle-rag-be/internal/config"
	"vehicle-rag-be/internal/dto"
	"vehicle-rag-be/internal/repository/unitofwork"
	"vehicle-rag-be/internal/service"
	"vehicle-rag-be/pkg/database"
)

var sampleRecords = []struct{ title, body string }{
	{"Rough idle after cold start", "2018 Camry idles rough for the first minute. Stored code P0300. Plugs replaced at 60k."},
	{"Lean condition bank 1", "Accord 2020 with P0171. Smoke test found a split intake boot."},
	{"Catalyst efficiency", "F-150 2019, P0420 returned after O2 sensor swap. Exhaust leak upstream of the cat."},
}

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, database.PoolConfig{}, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}
	defer database.Close(db)

	ctx := context.Background()
	records := service.NewRecordService(unitofwork.NewRepositoryFactory(db), cfg.Records)

	existing, err := records.Count(ctx, nil)
	if err != nil {
		log.Fatalf("Error: Failed to read records: %v", err)
	}
	if existing > 0 {
		log.Println("Records table is not empty, skipping seed.")
		return
	}

	log.Println("Seeding sample service records...")
	for _, r := range sampleRecords {
		title, body := r.title, r.body
		created, err := records.Create(ctx, &dto.CreateRecordRequest{Title: &title, Body: &body})
		if err != nil {
			log.Fatalf("Error: Failed to create record %q: %v", title, err)
		}
		log.Printf("Created record %d: %s", created.Id, created.Title)
	}
	log.Println("Seeding completed.")
}
