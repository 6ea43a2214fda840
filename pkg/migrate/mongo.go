package migrate

import "github.com/angelmondragon/lottodesk-backend/pkg/mongodb"

// MongoIndexes mirrors the unique and lookup indexes of the SQL schema.
func MongoIndexes() []mongodb.Index {
	return []mongodb.Index{
		{Collection: "roles", Fields: []string{"name"}, Unique: true},
		{Collection: "users", Fields: []string{"email"}, Unique: true},
		{Collection: "users", Fields: []string{"role_id"}},
		{Collection: "vendors", Fields: []string{"email"}, Unique: true},
		{Collection: "vendors", Fields: []string{"status", "-created_at"}},
		{Collection: "categories", Fields: []string{"slug"}, Unique: true},
		{Collection: "games", Fields: []string{"status", "-created_at"}},
		{Collection: "games", Fields: []string{"category_id"}},
		{Collection: "winners", Fields: []string{"game_id", "ticket_number"}, Unique: true},
		{Collection: "winners", Fields: []string{"status", "claim_deadline"}},
		{Collection: "reports", Fields: []string{"-created_at"}},
		{Collection: "notifications", Fields: []string{"user_id", "read", "-created_at"}},
	}
}
