package main

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/tbayconnect/api/internal/config"
	"github.com/tbayconnect/api/internal/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	// Load config
	cfg := config.Load()

	// Force DB logging off to avoid noise
	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	log.Println("✅ Connected to Database")

	// Common password for all users
	password := "password123"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("❌ Failed to hash password: %v", err)
	}

	// ==================== Users ====================
	log.Println("🌱 Seeding users...")

	admin := seedUser(db, model.User{
		Name:      "Console Admin",
		Email:     "admin@tbayconnect.local",
		Password:  string(hashedPassword),
		IsAdmin:   true,
		Community: "Thunder Bay",
	})

	ages := []int{17, 24, 31, 45, 62}
	interestSets := [][]string{
		{"drumming", "music"},
		{"beading", "craft"},
		{"food", "feast"},
		{"language", "teaching"},
		{"drumming", "feast"},
	}

	users := make([]*model.User, 0, len(ages))
	for i := range ages {
		age := ages[i]
		u := seedUser(db, model.User{
			Name:      fmt.Sprintf("Member %d", i+1),
			Email:     fmt.Sprintf("member%d@tbayconnect.local", i+1),
			Password:  string(hashedPassword),
			Age:       &age,
			Interests: interestSets[i],
			Community: "Fort William First Nation",
		})
		users = append(users, u)
	}

	// Everyone follows the first member
	for _, u := range users[1:] {
		follow := model.UserFollow{FollowerID: u.ID, FolloweeID: users[0].ID}
		db.Where("follower_id = ? AND followee_id = ?", u.ID, users[0].ID).FirstOrCreate(&follow)
	}

	// ==================== Manufacturing ====================
	log.Println("🌱 Seeding a production batch with devices...")

	batch := model.Batch{
		Code:     "TB-2026A",
		Kind:     model.DeviceKindBracelet,
		Quantity: 25,
		Status:   "in_production",
		Notes:    "First bracelet run for the Thunder Bay pilot",
	}
	db.Where("code = ?", batch.Code).FirstOrCreate(&batch)

	now := time.Now()
	for i := 1; i <= 5; i++ {
		serial := fmt.Sprintf("%s-%04d", batch.Code, i)
		dev := model.Device{
			ID:       serial,
			Kind:     model.DeviceKindBracelet,
			BatchID:  &batch.ID,
			Firmware: "1.0.0",
		}
		// First three are encoded and ready to link
		if i <= 3 {
			dev.Encoded = true
			dev.EncodedAt = &now
		}
		db.Where("id = ?", serial).FirstOrCreate(&dev)
	}

	// ==================== Sample event ====================
	log.Println("🌱 Seeding a sample event...")

	ev := model.Event{
		Title:       "Drum Circle at Marina Park",
		Description: "Weekly community drum circle. Bring a chair, all are welcome.",
		Category:    "drumming",
		Latitude:    48.4359,
		Longitude:   -89.2177,
		Address:     "Marina Park, Thunder Bay, ON",
		CreatorID:   admin.ID,
		CreatorName: admin.Name,
		Status:      model.EventStatusActive,
	}
	var existing model.Event
	if err := db.Where("title = ? AND creator_id = ?", ev.Title, admin.ID).First(&existing).Error; err != nil {
		ev.Participants = 1
		if err := db.Create(&ev).Error; err != nil {
			log.Fatalf("❌ Failed to seed event: %v", err)
		}
		db.Create(&model.EventAttendee{
			EventID:     ev.ID,
			UserID:      admin.ID,
			DisplayName: admin.Name,
			JoinedAt:    now,
		})
		db.Model(&model.User{}).Where("id = ?", admin.ID).Update("active_event_id", ev.ID)
	}

	log.Println("✅ Seeding complete")
	log.Printf("   Admin login: admin@tbayconnect.local / %s", password)
	log.Printf("   Members:     member1..%d@tbayconnect.local / %s", len(ages), password)
	log.Printf("   Devices:     TB-2026A-0001..0005 (0001-0003 encoded)")
}

// seedUser creates the user if the email is new and returns the row
func seedUser(db *gorm.DB, u model.User) *model.User {
	var existing model.User
	if err := db.Where("email = ?", u.Email).First(&existing).Error; err == nil {
		return &existing
	}

	u.ID = uuid.New()
	if err := db.Create(&u).Error; err != nil {
		log.Fatalf("❌ Failed to seed user %s: %v", u.Email, err)
	}
	log.Printf("   Created %s", u.Email)
	return &u
}
