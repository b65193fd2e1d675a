// Package keys locates the SSH key material for a host profile and loads
// the public key contents scripts need for self-configuration.
package keys

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sofibox/sofilab/internal/config"
)

// Info describes a discovered SSH key pair.
type Info struct {
	PrivatePath string // path to the private key
	PublicPath  string // PrivatePath + ".pub"
	HasPublic   bool   // whether the public key file exists
}

// Find locates the key for a profile:
//  1. the explicit keyfile from config, if the file exists
//  2. an auto-discovered key at ssh/<alias>_key next to the config file,
//     tried for every alias of the host
//
// Returns nil when no key file exists; the auth selector then moves on
// to password or agent strategies.
func Find(profile *config.Profile) *Info {
	if profile.Keyfile != "" {
		if info := fromPrivatePath(profile.Keyfile); info != nil {
			return info
		}
	}

	for _, alias := range profile.Aliases {
		path := filepath.Join(profile.ConfigDir, "ssh", alias+"_key")
		if info := fromPrivatePath(path); info != nil {
			return info
		}
	}

	return nil
}

func fromPrivatePath(path string) *Info {
	// A configured path may point at the public half; scripts and ssh both
	// want the private path, so strip the suffix before checking.
	path = strings.TrimSuffix(path, ".pub")

	if _, err := os.Stat(path); err != nil {
		return nil
	}

	info := &Info{
		PrivatePath: path,
		PublicPath:  path + ".pub",
	}
	if _, err := os.Stat(info.PublicPath); err == nil {
		info.HasPublic = true
	}
	return info
}

// PublicKey returns the public key file contents, or empty string when
// the file is missing or unreadable.
func (i *Info) PublicKey() string {
	if i == nil || !i.HasPublic {
		return ""
	}
	data, err := os.ReadFile(i.PublicPath)
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(data), "\n")
}
