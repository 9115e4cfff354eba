// Package httpapp provides the HTTP server for boxshare.
//
//	@title						boxshare API
//	@version					1.0
//	@description				Share images, audio clips and code snippets as "boxes" and fetch a random one.
//	@description
//	@description				Anyone can upload a box, fetch a random unflagged box, or flag a box for review.
//	@description				Moderation endpoints under /api/admin require the shared admin secret in the
//	@description				`X-Admin-Secret` header.
//
//	@license.name				MIT
//
//	@host						localhost:3000
//	@BasePath					/
//
//	@securityDefinitions.apikey	AdminSecret
//	@in							header
//	@name						X-Admin-Secret
//
//	@tag.name					Boxes
//	@tag.description			Upload, fetch and flag boxes.
//
//	@tag.name					Admin
//	@tag.description			Review flagged boxes, unflag or delete them.
//
//	@tag.name					Stats
//	@tag.description			Collection counters.
package httpapp
