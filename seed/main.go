package main

import (
	"context"
	"log"
	"sort"
	"time"

	"meetbot/config"
	"meetbot/database"
	scheduleRepo "meetbot/database/repository/schedule"
	"meetbot/services/availability"
	"meetbot/services/directory"
	"meetbot/utils"
)

const seedSource = "seed:demo"

func main() {
	config.LoadConfig()
	database.InitDB()
	defer database.CloseDB(context.Background())

	repo := scheduleRepo.NewMongoBusyRepo(database.DB())
	if err := repo.EnsureIndexes(); err != nil {
		log.Fatalf("Failed to create busy interval indexes: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	schedules := availability.DemoSchedules()
	participants := make([]string, 0, len(schedules))
	for p := range schedules {
		participants = append(participants, p)
	}
	sort.Strings(participants)

	total := 0
	for _, participant := range participants {
		// Re-running the seed replaces what it inserted before.
		if _, err := repo.DeleteBySource(ctx, participant, seedSource); err != nil {
			log.Fatalf("Failed to clear seeded intervals for %s: %v", participant, err)
		}
		for date, intervals := range schedules[participant] {
			if err := repo.AddBusyIntervals(ctx, participant, date, intervals, seedSource); err != nil {
				log.Fatalf("Failed to seed %s on %s: %v", participant, date, err)
			}
			total += len(intervals)
		}
	}
	log.Printf("Seeded %d busy intervals for %d participants", total, len(participants))

	if config.AppConfig.SessionBackend == "redis" {
		seed := config.SeedParticipantList()
		if len(seed) == 0 {
			seed = availability.DemoParticipants()
		}
		dir := directory.NewRedisDirectory(utils.GetDirectoryCacheClient())
		if err := dir.Seed(ctx, seed...); err != nil {
			log.Fatalf("Failed to seed participant directory: %v", err)
		}
		log.Printf("Seeded %d participants into the directory", len(seed))
	}
}
