package migrations

import (
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

// Seed the starting catalog. Idempotent: existing offers are left alone so
// admin price edits survive restarts.
func init() {
	m.Register(func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("offers")
		if err != nil {
			return err
		}

		seed := []struct {
			name        string
			description string
			price       float64
		}{
			{"Solo", "One ticket for one attendee", 25.0},
			{"Duo", "Two tickets for a pair", 50.0},
			{"Family", "Four tickets at a family rate", 70.0},
		}

		for _, s := range seed {
			if existing, _ := app.FindFirstRecordByFilter("offers", "name = {:name}", dbx.Params{"name": s.name}); existing != nil {
				continue
			}

			offer := core.NewRecord(collection)
			offer.Set("name", s.name)
			offer.Set("description", s.description)
			offer.Set("price", s.price)
			offer.Set("capacity", 100)
			offer.Set("is_active", true)

			if err := app.Save(offer); err != nil {
				return err
			}
		}
		return nil
	}, func(app core.App) error {
		return nil
	})
}
