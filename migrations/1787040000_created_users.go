package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		// Session identity lives in the auth service, not the builtin auth
		// flow, so the scaffold users collection is replaced outright.
		if scaffold, err := app.FindCollectionByNameOrId("users"); err == nil {
			if err := app.Delete(scaffold); err != nil {
				return err
			}
		}

		collection := core.NewBaseCollection("users")

		collection.Fields.Add(
			&core.TextField{
				Name:     "username",
				Required: true,
				Max:      100,
			},
			&core.EmailField{
				Name:     "email",
				Required: true,
			},
			&core.TextField{
				Name:     "password_hash",
				Required: true,
				Hidden:   true,
			},
			&core.BoolField{
				Name: "is_admin",
			},
			&core.TextField{
				Name:   "secret_key",
				Hidden: true,
			},
			&core.AutodateField{
				Name:     "created",
				OnCreate: true,
			},
			&core.AutodateField{
				Name:     "updated",
				OnCreate: true,
				OnUpdate: true,
			},
		)

		collection.AddIndex("idx_users_email", true, "email", "")
		collection.AddIndex("idx_users_username", true, "username", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
