package prefs

import (
	"os"

	"github.com/detect-field/trackpoint/pkg/file"
)

// Preferences holds the operator settings that survive restarts: the
// manually selected transport mode and the logged-in user.
type Preferences struct {
	TransportMode string `json:"transport_mode,omitempty"`
	ActiveUser    string `json:"active_user,omitempty"`
}

// PreferencesInterface defines methods for managing sticky operator settings.
type PreferencesInterface interface {
	Load() error
	TransportMode() string
	ActiveUser() string
	SaveTransportMode(mode string) error
	SaveActiveUser(user string) error
}

// PreferencesStore manages the preferences file.
type PreferencesStore struct {
	PrefsFile   string
	Preferences Preferences
	fileOps     file.FileOperations
}

// NewPreferencesStore initializes a new PreferencesStore instance.
func NewPreferencesStore(filePath string, fileOps file.FileOperations) PreferencesInterface {
	return &PreferencesStore{
		PrefsFile: filePath,
		fileOps:   fileOps,
	}
}

// Load reads the preferences file. A missing file yields the defaults
// ("Walking", "Unknown") rather than an error.
func (p *PreferencesStore) Load() error {
	err := p.fileOps.ReadJsonFile(p.PrefsFile, &p.Preferences)
	if err != nil {
		if os.IsNotExist(err) {
			p.Preferences = Preferences{}
			return nil
		}
		return err
	}
	return nil
}

// TransportMode returns the sticky manual transport mode.
func (p *PreferencesStore) TransportMode() string {
	if p.Preferences.TransportMode == "" {
		return "Walking"
	}
	return p.Preferences.TransportMode
}

// ActiveUser returns the operator identity.
func (p *PreferencesStore) ActiveUser() string {
	if p.Preferences.ActiveUser == "" {
		return "Unknown"
	}
	return p.Preferences.ActiveUser
}

// SaveTransportMode persists a new manual transport mode.
func (p *PreferencesStore) SaveTransportMode(mode string) error {
	p.Preferences.TransportMode = mode
	return p.fileOps.WriteJsonFile(p.PrefsFile, p.Preferences)
}

// SaveActiveUser persists a new operator identity.
func (p *PreferencesStore) SaveActiveUser(user string) error {
	p.Preferences.ActiveUser = user
	return p.fileOps.WriteJsonFile(p.PrefsFile, p.Preferences)
}
