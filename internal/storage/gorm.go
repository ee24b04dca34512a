package storage

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"esparcraft/internal/events"
	"esparcraft/internal/logger"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

const SettingJavaPath = "java_path"

var ErrSettingNotFound = errors.New("setting not found")

type PlayerSighting struct {
	ID        uint   `gorm:"primaryKey"`
	ServerID  string `gorm:"uniqueIndex:idx_server_player;not null"`
	NameKey   string `gorm:"uniqueIndex:idx_server_player;not null"`
	Name      string
	Joins     int
	FirstSeen time.Time
	LastJoin  time.Time
	LastLeave *time.Time
}

type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(path string) (*GormStore, error) {
	newLogger := gormlogger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		gormlogger.Config{
			IgnoreRecordNotFoundError: true,
			LogLevel:                  gormlogger.Error,
		},
	)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: newLogger})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(&PlayerSighting{}, &Setting{})
	if err != nil {
		return nil, fmt.Errorf("error migrating database: %w", err)
	}

	return &GormStore{db: db}, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) RecordJoin(serverID, name string, at time.Time) error {
	row := PlayerSighting{
		ServerID:  serverID,
		NameKey:   strings.ToLower(name),
		Name:      name,
		Joins:     1,
		FirstSeen: at,
		LastJoin:  at,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "server_id"}, {Name: "name_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"name":      name,
			"last_join": at,
			"joins":     gorm.Expr("joins + 1"),
		}),
	}).Create(&row).Error
}

func (s *GormStore) RecordLeave(serverID, name string, at time.Time) error {
	result := s.db.Model(&PlayerSighting{}).
		Where("server_id = ? AND name_key = ?", serverID, strings.ToLower(name)).
		Update("last_leave", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return s.db.Create(&PlayerSighting{
			ServerID:  serverID,
			NameKey:   strings.ToLower(name),
			Name:      name,
			FirstSeen: at,
			LastJoin:  at,
			LastLeave: &at,
		}).Error
	}
	return nil
}

func (s *GormStore) Sightings(serverID string) ([]PlayerSighting, error) {
	var rows []PlayerSighting
	if err := s.db.Where("server_id = ?", serverID).Order("name_key").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GormStore) KnownPlayers(serverID string) ([]string, error) {
	var names []string
	if err := s.db.Model(&PlayerSighting{}).Where("server_id = ?", serverID).Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names, nil
}

func (s *GormStore) DeleteServerHistory(serverID string) error {
	return s.db.Where("server_id = ?", serverID).Delete(&PlayerSighting{}).Error
}

func (s *GormStore) GetSetting(key string) (string, error) {
	var setting Setting
	result := s.db.First(&setting, "key = ?", key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: %s", ErrSettingNotFound, key)
		}
		return "", result.Error
	}
	return setting.Value, nil
}

func (s *GormStore) SetSetting(key string, value string) error {
	return s.db.Save(&Setting{Key: key, Value: value}).Error
}

func (s *GormStore) Record(sub *events.Subscription, log logger.Logger) {
	if log == nil {
		log = logger.Noop()
	}
	for ev := range sub.C() {
		if ev.Kind != events.KindPlayer || ev.Player == nil {
			continue
		}
		var err error
		if ev.Player.Joined {
			err = s.RecordJoin(ev.ServerID, ev.Player.Name, ev.At)
		} else {
			err = s.RecordLeave(ev.ServerID, ev.Player.Name, ev.At)
		}
		if err != nil {
			log.Warn("could not record player event", "server", ev.ServerID, "player", ev.Player.Name, "error", err)
		}
	}
}
