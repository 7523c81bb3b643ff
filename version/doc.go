// Package version carries the build version of the edgeshim binary.
//
// Version, commit and build time are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/edgeshim/version.Version=1.0.0" ./cmd/edgeshim
package version
