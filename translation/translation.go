// Package translation holds the user facing message catalogue. Redemption
// results are returned as a Message (key + params) and rendered late, so the
// same result can be shown in the web UI and in a Discord notification.
package translation

import "strings"

var messages = map[string]string{
	"PRIORITY_QUEUE_REDEEM_COMPLETE": "Your priority queue slot for {{serverName}} was created successfully. It will expire at: {{until}}",
	"PRIORITY_QUEUE_REDEEM_ERROR":    "Could not setup priority queue for {{serverName}}. Error: {{reason}}",
	"PRIORITY_QUEUE_PERMANENT":       "never",

	"WHITELIST_REDEEM_COMPLETE": "You were added to the whitelist of {{serverName}}.",
	"WHITELIST_REDEEM_ERROR":    "Could not add you to the whitelist of {{serverName}}. Error: {{reason}}",

	"RESERVED_SLOT_REDEEM_COMPLETE": "A reserved slot on {{serverName}} was created for you. It will expire at: {{until}}",
	"RESERVED_SLOT_REDEEM_ERROR":    "Could not reserve a slot on {{serverName}}. Error: {{reason}}",

	"DISCORD_ROLE_REDEEM_COMPLETE": "You got assigned the following discord roles: {{roles}}",
	"DISCORD_ROLE_REDEEM_ERROR":    "Could not assign discord roles. Error: {{reason}}",

	"FREETEXT_TEXT": "{{text}}",

	"PERK_PRIORITY_QUEUE_DESCRIPTION": "Priority Queue on {{serverName}} for {{amountInDays}} days",
	"PERK_PRIORITY_QUEUE_PERMANENT":   "Permanent Priority Queue on {{serverName}}",
	"PERK_WHITELIST_DESCRIPTION":      "Whitelist on {{serverName}}",
	"PERK_WHITELIST_DAYS_DESCRIPTION": "Whitelist on {{serverName}} for {{amountInDays}} days",
	"PERK_RESERVED_SLOT_DESCRIPTION":  "Reserved slot on {{serverName}} for {{amountInDays}} days",
	"PERK_RESERVED_SLOT_PERMANENT":    "Permanent reserved slot on {{serverName}}",
	"PERK_DISCORD_ROLE_DESCRIPTION":   "These discord roles will be assigned to your user: {{roles}}",
	"PERK_DISCORD_ROLE_DAYS":          "These discord roles will be assigned to your user for {{amountInDays}} days: {{roles}}",
	"PERKS_OWNED_DISCORD_ROLE":        "{{role}} role in Discord",

	"ERROR_STEAM_ID_MISMATCH_TITLE":       "Steam ID mismatch",
	"ERROR_STEAM_ID_MISMATCH_DESCRIPTION": "The Steam ID for this donation is different from the one connected with your profile.",

	"DONATION_NOTIFICATION": "{{user}} donated for {{package}}. Thank you!",
}

// Message is a translation key together with its parameters.
type Message struct {
	Key    string            `json:"key"`
	Params map[string]string `json:"params,omitempty"`
}

// New creates a Message from key and alternating name/value pairs.
func New(key string, kv ...string) Message {
	m := Message{Key: key}
	if len(kv) > 1 {
		m.Params = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			m.Params[kv[i]] = kv[i+1]
		}
	}
	return m
}

// String renders the message with the default catalogue.
func (m Message) String() string {
	return Translate(m.Key, m.Params)
}

// Translate replaces every {{param}} in the message registered for key.
// Unknown keys are returned verbatim.
func Translate(key string, params map[string]string) string {
	message, ok := messages[key]
	if !ok {
		return key
	}
	for name, value := range params {
		message = strings.ReplaceAll(message, "{{"+name+"}}", value)
	}
	return message
}
