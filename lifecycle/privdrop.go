package lifecycle

import (
	"fmt"
	"os/user"
	"strconv"
	"syscall"

	"github.com/semihalev/zlog/v2"
)

// DropPrivileges switches the running process to userName/groupName.
// No library in the corpus wraps setuid/setgid (the original tool
// leans on Rust's privdrop crate, which has no Go counterpart among
// the retrieved dependencies), so this talks to the kernel directly
// via syscall, same as any Go daemon that drops root.
func DropPrivileges(userName, groupName string) error {
	u, err := user.Lookup(userName)
	if err != nil {
		return fmt.Errorf("lifecycle: lookup user %s: %w", userName, err)
	}

	g, err := user.LookupGroup(groupName)
	if err != nil {
		return fmt.Errorf("lifecycle: lookup group %s: %w", groupName, err)
	}

	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return fmt.Errorf("lifecycle: parse uid %s: %w", u.Uid, err)
	}

	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return fmt.Errorf("lifecycle: parse gid %s: %w", g.Gid, err)
	}

	if err := syscall.Setgroups([]int{gid}); err != nil {
		return fmt.Errorf("lifecycle: setgroups: %w", err)
	}

	if err := syscall.Setgid(gid); err != nil {
		return fmt.Errorf("lifecycle: setgid: %w", err)
	}

	if err := syscall.Setuid(uid); err != nil {
		return fmt.Errorf("lifecycle: setuid: %w", err)
	}

	zlog.Info("dnssrc: dropped privileges", "user", userName, "group", groupName)

	return nil
}
