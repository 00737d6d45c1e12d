package beats

import (
	"fmt"
	"gspnp/internal/global"
	"gspnp/internal/sipmsg"
	"os"
	"time"

	"github.com/google/uuid"
)

// ECS-style document for one beacon
func Event(info sipmsg.BeaconInfo) (fields map[string]interface{}) {
	fields = map[string]interface{}{
		"@timestamp": time.Now().UTC(),
		"message": fmt.Sprintf("SUBSCRIBE mac:%s %s %s %s fw %s",
			info.MAC, info.Source.Addr(), info.Vendor, info.Model, info.Version),

		"event": map[string]interface{}{
			"id":       uuid.NewString(),
			"kind":     "event",
			"dataset":  global.ProgBaseName + ".beacon",
			"action":   "subscribe",
			"provider": info.EventPackage,
		},
		"source": map[string]interface{}{
			"ip":   info.Source.Addr().String(),
			"port": info.Source.Port(),
			"mac":  info.MAC,
		},
		"device": map[string]interface{}{
			"manufacturer": info.Vendor,
			"model": map[string]interface{}{
				"identifier": info.Model,
			},
			"firmware": info.Version,
			"contact":  info.ContactURI,
		},
		"agent": map[string]interface{}{
			"program": global.ProgBaseName,
			"version": global.ProgVersion,
			"type":    "filebeat",
			"pid":     os.Getpid(),
		},
	}
	return
}
