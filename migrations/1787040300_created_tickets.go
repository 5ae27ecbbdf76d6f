package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}
		offers, err := app.FindCollectionByNameOrId("offers")
		if err != nil {
			return err
		}
		reservations, err := app.FindCollectionByNameOrId("reservations")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("tickets")

		collection.Fields.Add(
			&core.RelationField{
				Name:          "user_id",
				Required:      true,
				CollectionId:  users.Id,
				MaxSelect:     1,
				CascadeDelete: true,
			},
			&core.RelationField{
				Name:         "offer_id",
				Required:     true,
				CollectionId: offers.Id,
				MaxSelect:    1,
			},
			&core.RelationField{
				Name:         "reservation_id",
				CollectionId: reservations.Id,
				MaxSelect:    1,
			},
			&core.TextField{
				Name:     "final_key",
				Required: true,
				Hidden:   true,
			},
			&core.TextField{
				Name: "qr_payload",
			},
			&core.BoolField{
				Name: "is_paid",
			},
			&core.SelectField{
				Name:      "payment_status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"pending", "paid"},
			},
			&core.DateField{
				Name: "payment_date",
			},
			&core.NumberField{
				Name: "amount",
				Min:  types.Pointer(0.0),
			},
			&core.BoolField{
				Name: "is_used",
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

		collection.AddIndex("idx_tickets_final_key", true, "final_key", "")
		collection.AddIndex("idx_tickets_user", false, "user_id", "")
		collection.AddIndex("idx_tickets_reservation", false, "reservation_id", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("tickets")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
