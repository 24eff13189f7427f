// Package types provides core types used across the agentsim orchestration core.
// This package has ZERO dependencies on other agentsim packages to avoid circular imports.
// All other packages should import types from here.
package types
