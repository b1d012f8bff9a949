package normalization

import "strings"

// entityAliases maps the entity names seen on backend events to their canonical form.
var entityAliases = map[string]string{
	"":        "",
	"-":       "",
	"default": "",

	"schedule":          "schedules",
	"schedules":         "schedules",
	"schedule-entry":    "schedules",
	"schedule-entries":  "schedules",
	"hours":             "schedules",
	"opening-hours":     "schedules",
	"merchant-schedule": "merchant-schedules",

	"merchant-schedules": "merchant-schedules",
	"merchant":           "merchants",
	"merchants":          "merchants",
	"shop":               "merchants",
	"shops":              "merchants",
}

// NormalizeEntity converts entity name variants to their canonical form.
// Unknown names are returned lowercased with underscores replaced by hyphens.
//
// Example:
//
//	NormalizeEntity("Schedule_Entry") => "schedules"
//	NormalizeEntity("shop") => "merchants"
func NormalizeEntity(raw string) string {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "_", "-")
	if canonical, found := entityAliases[normalized]; found {
		return canonical
	}
	return normalized
}
