package handlers

// @title Billbook API
// @version 1.0
// @description Line item and document total calculation for sales, purchases, expenses, challans and estimates

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8081
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @tag.name calculate
// @tag.description Stateless line and document calculations

// @tag.name drafts
// @tag.description Draft editing with live totals

// @tag.name documents
// @tag.description Finalized documents and hand-off snapshots

// @tag.name auth
// @tag.description Authentication operations
