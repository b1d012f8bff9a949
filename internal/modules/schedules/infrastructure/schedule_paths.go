package infrastructure

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrMissingIdentifier is returned when a path needs an identifier that is blank.
var ErrMissingIdentifier = errors.New("missing path identifier")

// EndpointPaths holds the backend path templates; %s placeholders are filled with escaped ids.
type EndpointPaths struct {
	List   string `yaml:"list"`
	Create string `yaml:"create"`
	Delete string `yaml:"delete"`
	Link   string `yaml:"link"`
	Unlink string `yaml:"unlink"`
	IsOpen string `yaml:"is_open"`
}

// DefaultEndpointPaths are used for any template left empty.
func DefaultEndpointPaths() EndpointPaths {
	return EndpointPaths{
		List:   "/api/v1/merchants/%s/schedules",
		Create: "/api/v1/schedules",
		Delete: "/api/v1/schedules/%s",
		Link:   "/api/v1/merchants/%s/schedules/%s",
		Unlink: "/api/v1/merchants/%s/schedules/%s",
		IsOpen: "/api/v1/merchants/%s/open",
	}
}

// WithDefaults fills blank templates from DefaultEndpointPaths.
func (p EndpointPaths) WithDefaults() EndpointPaths {
	def := DefaultEndpointPaths()
	fill := func(value, fallback string) string {
		if strings.TrimSpace(value) == "" {
			return fallback
		}
		return strings.TrimSpace(value)
	}
	return EndpointPaths{
		List:   fill(p.List, def.List),
		Create: fill(p.Create, def.Create),
		Delete: fill(p.Delete, def.Delete),
		Link:   fill(p.Link, def.Link),
		Unlink: fill(p.Unlink, def.Unlink),
		IsOpen: fill(p.IsOpen, def.IsOpen),
	}
}

// buildPath substitutes each identifier into template after trimming and path-escaping it.
func buildPath(template string, identifiers ...string) (string, error) {
	trimmed := strings.TrimSpace(template)
	if trimmed == "" {
		return "", fmt.Errorf("missing path configuration")
	}
	if strings.Count(trimmed, "%s") != len(identifiers) {
		return "", fmt.Errorf("path %q expects %d identifiers", trimmed, strings.Count(trimmed, "%s"))
	}
	args := make([]any, 0, len(identifiers))
	for _, identifier := range identifiers {
		id := strings.TrimSpace(identifier)
		if id == "" {
			return "", ErrMissingIdentifier
		}
		args = append(args, url.PathEscape(id))
	}
	return fmt.Sprintf(trimmed, args...), nil
}
