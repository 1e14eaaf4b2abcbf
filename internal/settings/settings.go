// Package settings persists per-user notification preferences.
package settings

import (
	"slices"
	"strings"

	"github.com/kidandcat/bugracer/internal/apperr"
	"github.com/kidandcat/bugracer/internal/logger"
	"github.com/kidandcat/bugracer/internal/model"
	"github.com/kidandcat/bugracer/internal/storage"
)

const keyPrefix = "notification_settings:"

func Key(userID string) string { return keyPrefix + userID }

// Load returns the user's settings, or the defaults when none were saved or
// the saved value cannot be decoded.
func Load(kv storage.Storage, userID string) (model.NotificationSettings, error) {
	s := model.DefaultNotificationSettings()
	if userID == "" {
		return s, apperr.New(apperr.Unauthorized, "settings.load", "not signed in")
	}
	if _, err := storage.GetJSON(kv, Key(userID), &s); err != nil {
		logger.Warningf("settings for %s: %v", userID, err)
		return model.DefaultNotificationSettings(), nil
	}
	return s, nil
}

func Save(kv storage.Storage, userID string, s model.NotificationSettings) error {
	if userID == "" {
		return apperr.New(apperr.Unauthorized, "settings.save", "not signed in")
	}
	if err := storage.SetJSON(kv, Key(userID), s); err != nil {
		return apperr.Wrap(apperr.Server, "settings.save", err)
	}
	return nil
}

func fields(s *model.NotificationSettings) map[string]*bool {
	return map[string]*bool{
		"emailNotifications":        &s.EmailNotifications,
		"browserNotifications":      &s.BrowserNotifications,
		"newBugNotifications":       &s.NewBugNotifications,
		"statusChangeNotifications": &s.StatusChangeNotifications,
		"mentionNotifications":      &s.MentionNotifications,
		"notificationSound":         &s.NotificationSound,
	}
}

// Names lists the setting names accepted by Set, sorted.
func Names() []string {
	var s model.NotificationSettings
	names := make([]string, 0, 6)
	for name := range fields(&s) {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Set changes one setting by its JSON name (case-insensitive) and saves.
func Set(kv storage.Storage, userID, name string, on bool) (model.NotificationSettings, error) {
	s, err := Load(kv, userID)
	if err != nil {
		return s, err
	}
	var target *bool
	for k, p := range fields(&s) {
		if strings.EqualFold(k, name) {
			target = p
		}
	}
	if target == nil {
		return s, apperr.Newf(apperr.Validation, "settings.set",
			"unknown setting %q (one of %s)", name, strings.Join(Names(), ", "))
	}
	*target = on
	return s, Save(kv, userID, s)
}
