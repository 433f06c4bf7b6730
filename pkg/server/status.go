package server

import (
	"encoding/json"

	"github.com/StoreStation/limbogate/pkg/chat"
)

// serverVersionName is the "version.name" field reported to the client and
// the version named in the Configuration known-packs advertisement.
const serverVersionName = "1.21.4"

// protocolVersion is the protocol this server speaks end to end.
const protocolVersion = 769

// statusDescription builds the status-ping JSON document, grounded on the
// teacher's handleStatusRequest JSON shape, generalized to protocol 769's
// version fields.
func statusDescription(motd string, online, max int) string {
	doc := map[string]any{
		"version": map[string]any{
			"name":     serverVersionName,
			"protocol": protocolVersion,
		},
		"players": map[string]any{
			"max":    max,
			"online": online,
			"sample": []any{},
		},
		"description": chat.Text(motd),
	}
	b, _ := json.Marshal(doc)
	return string(b)
}
