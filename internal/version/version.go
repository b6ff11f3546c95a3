// Package version carries build metadata set with -ldflags.
package version

// Version is overridden at build time:
//
//	go build -ldflags "-X github.com/baglabel/backend/internal/version.Version=1.2.0"
var Version = "dev"

// Service is the name reported by health checks and the CLI
const Service = "baglabel-backend"
