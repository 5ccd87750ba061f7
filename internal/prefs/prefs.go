// Package prefs persists user preferences in a YAML file, the desktop
// analog of the app's preference datastore. Unset keys fall back to the
// same defaults the UI ships with.
package prefs

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"greenstash/internal/core"
)

// Preference keys.
const (
	KeyCurrencyCode   = "default_currency_code"
	KeyDateFormat     = "date_format"
	KeyAppLock        = "app_lock"
	KeyGoalCardStyle  = "goal_card_style"
	KeyGoalFilterSort = "goal_filter_field"
	KeyGoalSortOrder  = "goal_filter_sort_type"
)

// Goal card styles.
const (
	CardStyleClassic = "Classic"
	CardStyleCompact = "Compact"
)

const prefsFileName = "preferences.yaml"

// Store reads and writes preferences. Every setter persists immediately.
type Store struct {
	v    *viper.Viper
	path string
}

// Open loads the preference file from dir, creating dir if needed. A
// missing file is not an error, defaults apply until something is set.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create prefs directory: %w", err)
	}

	v := viper.New()
	path := filepath.Join(dir, prefsFileName)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault(KeyCurrencyCode, "USD")
	v.SetDefault(KeyDateFormat, "dd/MM/yyyy")
	v.SetDefault(KeyAppLock, false)
	v.SetDefault(KeyGoalCardStyle, CardStyleClassic)
	v.SetDefault(KeyGoalFilterSort, core.SortByTitle.String())
	v.SetDefault(KeyGoalSortOrder, core.Ascending.String())

	if err := v.ReadInConfig(); err != nil {
		var notFound *os.PathError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read preferences: %w", err)
		}
		slog.Debug("No preference file yet, using defaults", "path", path)
	}

	return &Store{v: v, path: path}, nil
}

func (s *Store) CurrencyCode() string { return s.v.GetString(KeyCurrencyCode) }

func (s *Store) SetCurrencyCode(code string) error {
	if code == "" {
		return fmt.Errorf("currency code must not be empty")
	}
	return s.set(KeyCurrencyCode, code)
}

func (s *Store) DateFormat() string { return s.v.GetString(KeyDateFormat) }

func (s *Store) SetDateFormat(format string) error {
	if format == "" {
		return fmt.Errorf("date format must not be empty")
	}
	return s.set(KeyDateFormat, format)
}

func (s *Store) AppLockEnabled() bool { return s.v.GetBool(KeyAppLock) }

func (s *Store) SetAppLockEnabled(enabled bool) error {
	return s.set(KeyAppLock, enabled)
}

func (s *Store) GoalCardStyle() string { return s.v.GetString(KeyGoalCardStyle) }

func (s *Store) SetGoalCardStyle(style string) error {
	if style != CardStyleClassic && style != CardStyleCompact {
		return fmt.Errorf("unknown goal card style %q", style)
	}
	return s.set(KeyGoalCardStyle, style)
}

// GoalFilter returns the persisted goal list ordering.
func (s *Store) GoalFilter() core.GoalFilter {
	return core.GoalFilter{
		Field: core.ParseGoalSortField(s.v.GetString(KeyGoalFilterSort)),
		Order: core.ParseSortOrder(s.v.GetString(KeyGoalSortOrder)),
	}
}

func (s *Store) SetGoalFilter(filter core.GoalFilter) error {
	s.v.Set(KeyGoalFilterSort, filter.Field.String())
	s.v.Set(KeyGoalSortOrder, filter.Order.String())
	return s.write()
}

func (s *Store) set(key string, value any) error {
	s.v.Set(key, value)
	return s.write()
}

func (s *Store) write() error {
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}
