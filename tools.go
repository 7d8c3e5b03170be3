//go:build tools

package tools

// mockery is used as an installed binary (not via go run), so no import is
// needed. Regenerate the registry listener mock with:
//
//	mockery --name Listener --dir pkg/registry --output pkg/registry/mocks
