package sqlite

import (
	"fmt"

	"github.com/google/uuid"
)

const installationIDKey = "installation_id"

// InstallationID returns the random id of this installation, creating it
// on first use. Guests are told apart on the weekly board by this id.
func (d *DB) InstallationID() (string, error) {
	id, err := d.GetInstallInfo(installationIDKey)
	if err != nil {
		return "", fmt.Errorf("get installation id: %w", err)
	}
	if id != "" {
		return id, nil
	}

	id = uuid.NewString()
	if err := d.SetInstallInfo(installationIDKey, id); err != nil {
		return "", fmt.Errorf("save installation id: %w", err)
	}
	return id, nil
}
