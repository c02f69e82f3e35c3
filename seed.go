package main

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/aitomarabdeljalil/42-Matcha/discovery"
	"github.com/aitomarabdeljalil/42-Matcha/logging"
)

type seedConfig struct {
	Count    int
	Seed     int64
	Truncate bool
	LikeRate float64 // expected share of other users each user likes
	ViewRate float64 // expected share of other users each user views
	Password string  // same password for everyone (easy login)
	SpreadKm float64 // scatter radius around each city
}

func (c seedConfig) validate() error {
	if c.Count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", c.Count)
	}
	if c.LikeRate < 0 || c.LikeRate > 1 || c.ViewRate < 0 || c.ViewRate > 1 {
		return fmt.Errorf("rates must be in range 0..1")
	}
	if len(c.Password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	return nil
}

type seedCity struct {
	Name, Country string
	Lat, Lon      float64
}

var seedCities = []seedCity{
	{"Paris", "France", 48.8566, 2.3522},
	{"Lyon", "France", 45.7640, 4.8357},
	{"Marseille", "France", 43.2965, 5.3698},
	{"Lille", "France", 50.6292, 3.0573},
	{"Nice", "France", 43.7102, 7.2620},
	{"Brussels", "Belgium", 50.8503, 4.3517},
}

var (
	seedFirstNames = []string{"Alex", "Sam", "Mia", "Lina", "Noah", "Chloe", "Leo", "Emma", "Sara", "Luca", "Ines", "Hugo", "Jade", "Nina", "Yanis"}
	seedLastNames  = []string{"Martin", "Bernard", "Dubois", "Durand", "Leroy", "Moreau", "Simon", "Laurent", "Michel", "Garcia"}
	seedInterests  = []string{"hiking", "photography", "cooking", "reading", "vegan", "geek", "piercing", "travel", "music", "cinema", "yoga", "climbing", "gaming", "art", "tennis"}
	seedBios       = []string{
		"Curious mind, coffee lover.",
		"Weekend hiker and weekday coder.",
		"Always learning new things.",
		"Talk to me about music and tech.",
		"Into analog photography and ramen.",
	}
)

// generateProfiles builds n deterministic profiles for r. The first two
// are fixed test accounts in Paris.
func generateProfiles(r *rand.Rand, n int, now time.Time, spreadKm float64) []discovery.User {
	usedEmails := make(map[string]struct{}, n)
	out := make([]discovery.User, 0, n)

	for i := 0; i < n; i++ {
		var u discovery.User
		city := seedCities[r.Intn(len(seedCities))]
		if i < 2 {
			city = seedCities[0]
		}

		u.FirstName = seedFirstNames[r.Intn(len(seedFirstNames))]
		u.LastName = seedLastNames[r.Intn(len(seedLastNames))]
		if i < 2 {
			u.Email = fmt.Sprintf("user%d@test.local", i+1)
			u.Username = fmt.Sprintf("user%d", i+1)
		} else {
			u.Email, u.Username = uniqueSeedEmail(r, u.FirstName, u.LastName, usedEmails)
		}
		usedEmails[u.Email] = struct{}{}

		birth := now.AddDate(-(18 + r.Intn(42)), -r.Intn(12), -r.Intn(28)).Truncate(24 * time.Hour)
		u.BirthDate = &birth

		u.Gender = discovery.Genders[weightedGender(r)]
		if r.Float64() < 0.9 {
			u.SexualPreferences = randomPreferences(r)
		} else {
			u.SexualPreferences = discovery.StringList{}
		}
		u.Interests = randomSubset(r, seedInterests, 2+r.Intn(5))
		u.Biography = seedBios[r.Intn(len(seedBios))]

		nPhotos := r.Intn(maxPhotos + 1)
		photos := make(discovery.StringList, 0, nPhotos)
		for p := 0; p < nPhotos; p++ {
			photos = append(photos, fmt.Sprintf("https://picsum.photos/seed/%d-%d/600/800", i, p))
		}
		u.Photos = photos

		lat, lon := scatter(r, city.Lat, city.Lon, spreadKm)
		u.Latitude, u.Longitude = &lat, &lon
		u.City, u.Country, u.LocationSource = city.Name, city.Country, locationSourceManual

		u.CreatedAt = now.Add(-time.Duration(r.Intn(400*24)) * time.Hour)
		lastSeen := now.Add(-time.Duration(r.Intn(14*24*60)) * time.Minute)
		if i < 2 {
			lastSeen = now
		}
		u.LastOnline = &lastSeen

		out = append(out, u)
	}
	return out
}

func uniqueSeedEmail(r *rand.Rand, first, last string, used map[string]struct{}) (string, string) {
	for {
		username := strings.ToLower(fmt.Sprintf("%s.%s%d", first, last, r.Intn(1000000)))
		domain := []string{"example.com", "mail.test", "dev.local"}[r.Intn(3)]
		email := username + "@" + domain
		if _, ok := used[email]; !ok {
			return email, username
		}
	}
}

// weightedGender returns an index into discovery.Genders, mostly male or
// female.
func weightedGender(r *rand.Rand) int {
	switch p := r.Float64(); {
	case p < 0.46:
		return 0
	case p < 0.92:
		return 1
	default:
		return 2
	}
}

func randomPreferences(r *rand.Rand) discovery.StringList {
	return randomSubset(r, discovery.Genders, 1+r.Intn(len(discovery.Genders)))
}

func randomSubset(r *rand.Rand, from []string, n int) discovery.StringList {
	n = min(n, len(from))
	idx := r.Perm(len(from))[:n]
	out := make(discovery.StringList, 0, n)
	for _, i := range idx {
		out = append(out, from[i])
	}
	return out
}

// scatter returns a point at most spreadKm from (lat, lon).
func scatter(r *rand.Rand, lat, lon, spreadKm float64) (float64, float64) {
	dist := spreadKm * math.Sqrt(r.Float64())
	bearing := r.Float64() * 2 * math.Pi
	dLat := dist / discovery.EarthRadiusKm * math.Cos(bearing)
	dLon := dist / (discovery.EarthRadiusKm * math.Cos(lat*math.Pi/180)) * math.Sin(bearing)
	return lat + dLat*180/math.Pi, lon + dLon*180/math.Pi
}

// runSeed fills the database in one transaction.
func runSeed(ctx context.Context, db *sql.DB, c seedConfig) error {
	if err := c.validate(); err != nil {
		return err
	}
	r := rand.New(rand.NewSource(c.Seed))
	now := time.Now()

	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("bcrypt: %w", err)
	}
	profiles := generateProfiles(r, c.Count, now, c.SpreadKm)

	return withTx(ctx, db, func(tx *sql.Tx) error {
		if c.Truncate {
			if _, err := tx.ExecContext(ctx,
				`TRUNCATE TABLE profile_likes, profile_views, users RESTART IDENTITY CASCADE`); err != nil {
				return fmt.Errorf("truncate: %w", err)
			}
			logging.Info().Msg("truncated users, profile_likes, profile_views")
		}

		ids, err := insertSeedUsers(ctx, tx, profiles, string(hash))
		if err != nil {
			return err
		}
		logging.Info().Int("count", len(ids)).Msg("inserted users")

		if err := insertSeedEdges(ctx, tx, r, ids, c.LikeRate,
			`INSERT INTO profile_likes (liker_id, liked_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`); err != nil {
			return fmt.Errorf("insert likes: %w", err)
		}
		if err := insertSeedEdges(ctx, tx, r, ids, c.ViewRate,
			`INSERT INTO profile_views (viewer_id, viewed_id) VALUES ($1, $2)`); err != nil {
			return fmt.Errorf("insert views: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE users u SET
				likes_count = (SELECT COUNT(*) FROM profile_likes l WHERE l.liked_id = u.id),
				profile_views = (SELECT COUNT(*) FROM profile_views v WHERE v.viewed_id = u.id)
			WHERE u.id = ANY($1)
		`, pqIntArray(ids)); err != nil {
			return fmt.Errorf("recount: %w", err)
		}

		for _, id := range ids {
			u, err := loadUserForUpdate(ctx, tx, id)
			if err != nil {
				return err
			}
			refreshStats(u, now)
			if err := saveUser(ctx, tx, u); err != nil {
				return err
			}
		}
		logging.Info().Int("count", len(ids)).Msg("seed complete")
		return nil
	})
}

func insertSeedUsers(ctx context.Context, tx *sql.Tx, profiles []discovery.User, pwHash string) ([]int, error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO users (
			email, username, password, first_name, last_name, birth_date, gender,
			sexual_preferences, interests, photos, biography,
			latitude, longitude, city, country, location_source, location_updated_at,
			last_online, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (email) DO UPDATE SET
			password = EXCLUDED.password,
			last_online = EXCLUDED.last_online
		RETURNING id`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	ids := make([]int, 0, len(profiles))
	for i, u := range profiles {
		var id int
		if err := stmt.QueryRowContext(ctx,
			u.Email, u.Username, pwHash, u.FirstName, u.LastName, *u.BirthDate, u.Gender,
			u.SexualPreferences, u.Interests, u.Photos, u.Biography,
			*u.Latitude, *u.Longitude, u.City, u.Country, u.LocationSource, u.CreatedAt,
			*u.LastOnline, u.CreatedAt,
		).Scan(&id); err != nil {
			return nil, fmt.Errorf("insert user %d (%s): %w", i, u.Email, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// insertSeedEdges adds a random directed edge set where each user points
// at about rate*len(ids) others. The first two users always point at each
// other.
func insertSeedEdges(ctx context.Context, tx *sql.Tx, r *rand.Rand, ids []int, rate float64, query string) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	if len(ids) >= 2 && rate > 0 {
		if _, err := stmt.ExecContext(ctx, ids[0], ids[1]); err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, ids[1], ids[0]); err != nil {
			return err
		}
	}
	for _, from := range ids[min(2, len(ids)):] {
		for _, to := range ids {
			if to == from || r.Float64() >= rate {
				continue
			}
			if _, err := stmt.ExecContext(ctx, from, to); err != nil {
				return err
			}
		}
	}
	return nil
}
