// ABOUTME: Connection settings for the Charm KV draft cache
// ABOUTME: Derived from the application config's cache section

package charm

import (
	"github.com/markahope-aag/hazardos-sub000/config"
)

// DraftPrefix namespaces serialized drafts in the KV store.
const DraftPrefix = "draft:"

// activeKey remembers which draft the CLI is working on.
const activeKey = "active-draft"

// Config holds charm connection settings.
type Config struct {
	// Name is the KV database name under the charm data directory.
	Name string

	// Host is the charm server hostname.
	Host string

	// AutoSync pushes to the server after every write.
	AutoSync bool
}

// ConfigFrom maps the application's cache section onto charm settings.
func ConfigFrom(c config.CacheConfig) Config {
	host := c.Host
	if host == "" {
		host = config.DefaultCharmHost
	}
	return Config{
		Name:     config.AppName,
		Host:     host,
		AutoSync: c.AutoSync,
	}
}
