// Package pkg holds the logging setup and sentinel errors shared by the
// host-side tools. Firmware packages never log.
package pkg
