// Package settings resolves CLI flags and positional arguments into an
// immutable Config the rest of the process depends on.
package settings

import (
	"fmt"
	"net"

	"github.com/diodelass/Teamech-Desktop/network"
)

// Config is the fully-resolved set of connection and identity parameters
// derived from CLI input once at startup. Nothing reads raw flag state after
// resolution.
type Config struct {
	ServerAddr *net.UDPAddr
	PadPath    string
	Name       string
	Class      string
	LocalPort  uint16
	ShowHex    bool
}

// Resolve turns the raw positional/flag values parsed by the CLI command
// into a Config, resolving the server address via DNS and taking the first
// candidate the resolver returns.
func Resolve(address, padPath, name, class string, localPort uint16, showHex bool) (Config, error) {
	if address == "" {
		return Config{}, fmt.Errorf("settings: ADDRESS is required")
	}
	if padPath == "" {
		return Config{}, fmt.Errorf("settings: PADFILE is required")
	}

	serverAddr, err := network.ResolveServer(address)
	if err != nil {
		return Config{}, err
	}

	if name == "" {
		name = "human"
	}
	if class == "" {
		class = "supervisor"
	}

	return Config{
		ServerAddr: serverAddr,
		PadPath:    padPath,
		Name:       name,
		Class:      class,
		LocalPort:  localPort,
		ShowHex:    showHex,
	}, nil
}
