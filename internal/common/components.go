package common

const (
	ComponentDownloader  = "downloader"
	ComponentLogFetcher  = "log-fetcher"
	ComponentSyncManager = "sync-manager"
	ComponentProjection  = "projection"
	ComponentReadAPI     = "read-api"
	ComponentMaintenance = "maintenance"
)

var AllComponents = map[string]struct{}{
	ComponentDownloader:  {},
	ComponentLogFetcher:  {},
	ComponentSyncManager: {},
	ComponentProjection:  {},
	ComponentReadAPI:     {},
	ComponentMaintenance: {},
}
