// Package api provides the read-only REST API over the Fundify read model
// @title Fundify Indexer API
// @version 1.0
// @description Read-only REST API for projects, investments, voting cycles and votes indexed from the Fundify contract
// @contact.name API Support
// @license.name Apache 2.0
// @license.url https://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @basePath /api/v1
// @schemes http https
package api
