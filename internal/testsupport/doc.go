// Package testsupport holds helpers shared by package tests: temp-rooted
// configs, config files, and an opened download cache.
package testsupport
