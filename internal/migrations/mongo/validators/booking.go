package validators

import "go.mongodb.org/mongo-driver/bson"

// BookingValidator only pins the fields the slot projection reads. The
// booking procedure owns the rest of the document.
var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"slot_id",
			"user_id",
			"group_size",
			"status",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"slot_id": bson.M{
				"bsonType": "objectId",
			},

			"user_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"group_size": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"allow_fill": bson.M{
				"bsonType": "bool",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"confirmed",
					"cancelled",
				},
			},

			"participants": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"name"},
					"properties": bson.M{
						"name": bson.M{
							"bsonType":  "string",
							"minLength": 1,
							"maxLength": 100,
						},
						"is_primary": bson.M{
							"bsonType": "bool",
						},
					},
				},
			},
		},
	},
}
