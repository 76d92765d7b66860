package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

const appID = "bbtx"

// MachineID retrieves an ID identifying the machine, derived from the
// machine ID so the raw value isn't exposed on the tap. It falls back to
// the host name.
func MachineID() string {
	id, err := machineid.ProtectedID(appID)
	if err == nil {
		if len(id) > 12 {
			id = id[:12]
		}
		return id
	}
	glog.Warningf("machine id unavailable: %v", err)
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return appID
}
