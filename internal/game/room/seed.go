package room

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Seed describes a room created at process start with a fixed id, such as
// the built-in demo room.
type Seed struct {
	ID       string `yaml:"id"`
	HostID   string `yaml:"host_id"`
	Password string `yaml:"password"`
}

type seedFile struct {
	Rooms []Seed `yaml:"rooms"`
}

// LoadSeedFile reads a YAML seed file into a slice of Seeds.
//
// Precondition: path must be a readable YAML file.
// Postcondition: Returns the parsed seeds (may be empty) or a non-nil error.
func LoadSeedFile(path string) ([]Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file %s: %w", path, err)
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	return f.Rooms, nil
}

// Seed registers rooms with fixed ids at startup. Seeded rooms behave like
// any other room except their id is taken from the seed rather than
// generated; they remain listed until a join/leave cycle empties them.
//
// Precondition: every seed must have a non-empty ID and HostID.
// Postcondition: All seeds are registered, or a non-nil error and no partial
// guarantee about how many were.
func (g *Registry) Seed(seeds []Seed) error {
	for _, s := range seeds {
		if s.ID == "" || s.HostID == "" {
			return fmt.Errorf("seed room must have id and host_id, got id=%q host_id=%q", s.ID, s.HostID)
		}

		var hash []byte
		if s.Password != "" {
			var err error
			hash, err = bcrypt.GenerateFromPassword([]byte(s.Password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hashing seed room password: %w", err)
			}
		}

		g.mu.Lock()
		if g.rooms[s.ID] != nil {
			g.mu.Unlock()
			return fmt.Errorf("seed room id %q already registered", s.ID)
		}
		r := newRoom(s.ID, s.HostID, hash, g.Remove, g.logger, g.metrics)
		g.rooms[s.ID] = r
		g.mu.Unlock()

		g.metrics.RoomCreated()
		g.logger.Info("room seeded",
			zap.String("room_id", s.ID),
			zap.String("host_id", s.HostID),
			zap.Bool("password_required", r.PasswordRequired()),
		)
	}
	return nil
}
