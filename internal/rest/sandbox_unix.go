// Copyright (C) 2026 The imfilter authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

//go:build !windows

package rest

import (
	"fmt"
	"os"
	"syscall"
)

// Sandbox restricts the serving process: an optional chroot (requires
// root) and an optional switch to an unprivileged user id. Pass an
// empty chroot or a negative uid to skip either step.
func Sandbox(chroot string, setuid int) error {
	if chroot != "" {
		if err := syscall.Chroot(chroot); err != nil {
			return fmt.Errorf("chroot(%s): %w", chroot, err)
		}
		if err := os.Chdir("/"); err != nil {
			return fmt.Errorf("chdir after chroot: %w", err)
		}
	}
	if setuid >= 0 {
		if err := syscall.Setuid(setuid); err != nil {
			return fmt.Errorf("setuid(%d): %w", setuid, err)
		}
	}
	return nil
}
