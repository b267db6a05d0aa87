// Command backfill fills in missing content metadata on room typing results.
// Early clients recorded room sessions without the room's module topic or
// difficulty; this resolves each result's room and stamps the missing fields.
package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"

	"nursescript/internal/config"
	"nursescript/internal/database"
	"nursescript/internal/repository"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report what would change without writing")
	flag.Parse()

	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	cfg := config.Load()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	resultRepo := repository.NewTypingResultRepository(db)
	roomRepo := repository.NewRoomRepository(db)

	results, err := resultRepo.ListRoomResultsMissingContent()
	if err != nil {
		log.Fatalf("Failed to list results: %v", err)
	}

	log.Printf("Found %d room results missing content metadata", len(results))

	var updated, skipped int
	// Rooms repeat across results, so cache lookups
	rooms := make(map[string]struct{ topic, difficulty string })

	for _, result := range results {
		meta, ok := rooms[result.RoomID]
		if !ok {
			room, err := roomRepo.GetByID(result.RoomID)
			if err != nil {
				log.Fatalf("Failed to load room %s: %v", result.RoomID, err)
			}
			if room == nil {
				log.Printf("Skipping result %s: room %s no longer exists", result.ID, result.RoomID)
				skipped++
				continue
			}
			meta = struct{ topic, difficulty string }{room.Module, room.DifficultyLevel}
			rooms[result.RoomID] = meta
		}

		topic := result.Content.Topic
		if topic == "" {
			topic = meta.topic
		}
		difficulty := result.Content.Difficulty
		if difficulty == "" {
			difficulty = meta.difficulty
		}

		if *dryRun {
			log.Printf("Would update result %s: topic=%q difficulty=%q", result.ID, topic, difficulty)
			updated++
			continue
		}

		if err := resultRepo.UpdateContent(result.ID, topic, difficulty); err != nil {
			log.Fatalf("Failed to update result %s: %v", result.ID, err)
		}
		updated++
	}

	if *dryRun {
		log.Printf("Dry run complete: %d results would be updated, %d skipped", updated, skipped)
		return
	}
	log.Printf("Backfill complete: %d results updated, %d skipped", updated, skipped)
}
