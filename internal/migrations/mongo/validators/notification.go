package validators

import "go.mongodb.org/mongo-driver/bson"

// NotificationValidator builds the schema for one inbox collection; ownerField
// is provider_id or seeker_id.
func NotificationValidator(ownerField string) bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{
				ownerField,
				"type",
				"message",
				"is_read",
				"created_at",
			},
			"additionalProperties": true,

			"properties": bson.M{
				ownerField: bson.M{
					"bsonType":  "string",
					"minLength": 24,
					"maxLength": 24,
				},

				"type": bson.M{
					"bsonType":  "string",
					"minLength": 1,
				},

				"message": bson.M{
					"bsonType": "string",
				},

				"is_read": bson.M{
					"bsonType": "bool",
				},

				"created_at": bson.M{
					"bsonType": "date",
				},
			},
		},
	}
}
