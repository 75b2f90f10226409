//go:build !linux

package main

// isTerminal reports false off Linux; -i then reads plain lines.
func isTerminal(int) bool {
	return false
}
