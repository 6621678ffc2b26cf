// SPDX-License-Identifier: BSD-3-Clause

package persistence

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ResolveConfigDir implements the daemon's config-directory resolution.
// When running unprivileged, it's simply $XDG_CONFIG_HOME/hyperfan or
// $HOME/.config/hyperfan. When running as root — the daemon's normal mode —
// it must find the real human operator's config directory rather than
// writing into root's own:
//
//  1. SUDO_USER, if set, names that user directly.
//  2. PKEXEC_UID, if set, names that user by uid.
//  3. Otherwise scan /etc/passwd for uid >= 1000 candidates, preferring, in
//     order: a user with an active logind session (/run/user/<uid> exists),
//     then a user who already has a hyperfan settings.json or curves.json,
//     then the first regular user found.
func ResolveConfigDir() (string, error) {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
		return configDirForUsername(sudoUser)
	}
	if pkexecUID := os.Getenv("PKEXEC_UID"); pkexecUID != "" {
		if uid, err := strconv.Atoi(pkexecUID); err == nil {
			if u, ok := lookupPasswdByUID(uid); ok {
				return configDirForHome(u.home)
			}
		}
	}

	if os.Geteuid() != 0 {
		return configDirFromEnv(os.Getenv("XDG_CONFIG_HOME"), os.Getenv("HOME"))
	}

	return resolveRootFallback()
}

type passwdUser struct {
	name string
	uid  int
	home string
}

func resolveRootFallback() (string, error) {
	candidates := regularUsers()
	if len(candidates) == 0 {
		return "", ErrNoConfigUser
	}

	for _, u := range candidates {
		if _, err := os.Stat(filepath.Join("/run/user", strconv.Itoa(u.uid))); err == nil {
			return configDirForHome(u.home)
		}
	}

	for _, u := range candidates {
		dir, err := configDirForHome(u.home)
		if err != nil {
			continue
		}
		if fileExists(filepath.Join(dir, "settings.json")) || fileExists(filepath.Join(dir, "curves.json")) {
			return dir, nil
		}
	}

	return configDirForHome(candidates[0].home)
}

func configDirForUsername(name string) (string, error) {
	u, ok := lookupPasswdByName(name)
	if !ok {
		return "", ErrNoConfigUser
	}
	return configDirForHome(u.home)
}

func configDirForHome(home string) (string, error) {
	return configDirFromEnv("", home)
}

func configDirFromEnv(xdgConfigHome, home string) (string, error) {
	if xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "hyperfan"), nil
	}
	if home != "" {
		return filepath.Join(home, ".config", "hyperfan"), nil
	}
	return "", ErrNoConfigUser
}

func regularUsers() []passwdUser {
	var out []passwdUser
	for _, u := range readPasswd() {
		if u.uid >= 1000 {
			out = append(out, u)
		}
	}
	return out
}

func lookupPasswdByUID(uid int) (passwdUser, bool) {
	for _, u := range readPasswd() {
		if u.uid == uid {
			return u, true
		}
	}
	return passwdUser{}, false
}

func lookupPasswdByName(name string) (passwdUser, bool) {
	for _, u := range readPasswd() {
		if u.name == name {
			return u, true
		}
	}
	return passwdUser{}, false
}

func readPasswd() []passwdUser {
	f, err := os.Open("/etc/passwd")
	if err != nil {
		return nil
	}
	defer f.Close()

	var out []passwdUser
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), ":")
		if len(fields) < 6 {
			continue
		}
		uid, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}
		out = append(out, passwdUser{name: fields[0], uid: uid, home: fields[5]})
	}
	return out
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
