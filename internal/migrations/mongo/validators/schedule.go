package validators

import "go.mongodb.org/mongo-driver/bson"

var blockSchema = bson.M{
	"bsonType": "object",
	"required": []string{"kind", "duration_minutes"},
	"properties": bson.M{
		"kind": bson.M{
			"bsonType": "string",
			"enum":     []string{"lesson", "break"},
		},
		"duration_minutes": bson.M{
			"bsonType": []string{"int", "long"},
			"minimum":  1,
			"maximum":  1440,
		},
		"max_capacity": bson.M{
			"bsonType": []string{"int", "long"},
			"minimum":  1,
			"maximum":  200,
		},
		"joinable": bson.M{
			"bsonType": "bool",
		},
	},
}

var BatchValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"valid_from",
			"valid_to",
			"days_of_week",
			"base_time_start",
			"location",
			"template",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"valid_from": dateString,
			"valid_to":   dateString,

			"days_of_week": weekdays,

			"base_time_start": timeOfDay,

			"location": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"template": bson.M{
				"bsonType": "object",
				"required": []string{"blocks"},
				"properties": bson.M{
					"blocks": bson.M{
						"bsonType": "array",
						"minItems": 1,
						"items":    blockSchema,
					},
				},
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"applying",
					"completed",
					"partial",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var OverrideValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"location",
			"date",
			"kind",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"location": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"date": dateString,

			"kind": bson.M{
				"bsonType": "string",
				"enum":     []string{"closed"},
			},

			"reason": bson.M{
				"bsonType":  "string",
				"maxLength": 200,
			},
		},
	},
}

var RuleValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"location",
			"start_of_day",
			"end_of_day",
			"days_of_week",
			"lesson_duration_min",
			"max_capacity",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"location": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"start_of_day": timeOfDay,
			"end_of_day":   timeOfDay,

			"days_of_week": weekdays,

			"lesson_duration_min": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  5,
				"maximum":  480,
			},

			"break_duration_min": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
				"maximum":  480,
			},

			"max_capacity": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  200,
			},

			"exceptions": bson.M{
				"bsonType": []string{"array", "null"},
				"items":    dateString,
			},
		},
	},
}

var LeaseValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "owner", "expires_at"},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},
			"owner": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
			"expires_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var (
	dateString = bson.M{
		"bsonType": "string",
		"pattern":  `^\d{4}-\d{2}-\d{2}$`,
	}

	timeOfDay = bson.M{
		"bsonType": "string",
		"pattern":  `^([01]\d|2[0-3]):[0-5]\d$`,
	}

	weekdays = bson.M{
		"bsonType":    "array",
		"minItems":    1,
		"maxItems":    7,
		"uniqueItems": true,
		"items": bson.M{
			"bsonType": []string{"int", "long"},
			"minimum":  0,
			"maximum":  6,
		},
	}
)
