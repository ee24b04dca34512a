package domain

import "time"

type ConfigRepository interface {
	Load() ([]ServerConfig, error)
	Save(servers []ServerConfig) error
}

type PlayerHistoryRepository interface {
	RecordJoin(serverID, name string, at time.Time) error
	RecordLeave(serverID, name string, at time.Time) error
	KnownPlayers(serverID string) ([]string, error)
	DeleteServerHistory(serverID string) error
}

type SettingRepository interface {
	GetSetting(key string) (string, error)
	SetSetting(key string, value string) error
}
