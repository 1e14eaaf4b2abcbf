package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidandcat/bugracer/internal/apperr"
	"github.com/kidandcat/bugracer/internal/model"
	"github.com/kidandcat/bugracer/internal/storage"
)

func TestLoadDefaults(t *testing.T) {
	kv := storage.NewMemory()
	s, err := Load(kv, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultNotificationSettings(), s)

	_, err = Load(kv, "")
	assert.True(t, apperr.IsUnauthorized(err))
}

func TestSaveIsPerUser(t *testing.T) {
	kv := storage.NewMemory()
	s := model.DefaultNotificationSettings()
	s.NotificationSound = false
	require.NoError(t, Save(kv, "u1", s))
	assert.Equal(t, []string{"notification_settings:u1"}, kv.Keys())

	got, err := Load(kv, "u1")
	require.NoError(t, err)
	assert.False(t, got.NotificationSound)

	other, err := Load(kv, "u2")
	require.NoError(t, err)
	assert.True(t, other.NotificationSound)
}

func TestCorruptValueFallsBack(t *testing.T) {
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(Key("u1"), "{not json"))
	s, err := Load(kv, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultNotificationSettings(), s)
}

func TestSet(t *testing.T) {
	tests := []struct {
		name    string
		setting string
		check   func(model.NotificationSettings) bool
		wantErr bool
	}{
		{"exact name", "emailNotifications", func(s model.NotificationSettings) bool { return !s.EmailNotifications }, false},
		{"case insensitive", "MENTIONNOTIFICATIONS", func(s model.NotificationSettings) bool { return !s.MentionNotifications }, false},
		{"unknown", "smsNotifications", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := storage.NewMemory()
			s, err := Set(kv, "u1", tt.setting, false)
			if tt.wantErr {
				assert.True(t, apperr.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.check(s))
			saved, _ := Load(kv, "u1")
			assert.Equal(t, s, saved)
		})
	}
}

func TestSaveFailure(t *testing.T) {
	kv := storage.NewMemory()
	kv.SetFailWrites(true)
	err := Save(kv, "u1", model.DefaultNotificationSettings())
	assert.Equal(t, apperr.Server, apperr.KindOf(err))
}

func TestNames(t *testing.T) {
	assert.Len(t, Names(), 6)
	assert.Equal(t, "browserNotifications", Names()[0])
}
