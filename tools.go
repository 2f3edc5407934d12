//go:build tools
// +build tools

// Package tools declares tool dependencies for this module.
//
// The mockgen import is never used at runtime. It keeps the generator used by
// `go generate` pinned in go.mod and go.sum.
package room_lab

import (
	_ "go.uber.org/mock/mockgen"
)
