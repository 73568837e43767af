package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Project-Sylos/Harbor/internal/dispatch"
	"github.com/Project-Sylos/Harbor/internal/types"
	"github.com/Project-Sylos/Harbor/internal/upload"
)

// errEmpty marks a blank line
var errEmpty = errors.New("empty command")

// command is one parsed REPL line
type command struct {
	intent dispatch.Intent
	paths  []string // files to open for an upload
	up     bool     // navigate to the parent of the current folder
	help   bool
	exit   bool
}

// parseCommand turns a REPL line into an intent
//
//	cd <id> | cd .. | cd /     navigate
//	ls | refresh               reload the current folder
//	mkdir <name>               create a directory here
//	rename <id> <name>         rename an item
//	rm <id>                    delete an item
//	put [-e 1d] <path>...      upload files
func parseCommand(line string) (command, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return command{}, errEmpty
	}
	cmd, args := parts[0], parts[1:]

	switch cmd {
	case "help", "?":
		return command{help: true}, nil

	case "exit", "quit":
		return command{exit: true}, nil

	case "cd":
		if len(args) != 1 {
			return command{}, fmt.Errorf("usage: cd <id>|..|/")
		}
		switch args[0] {
		case "..":
			return command{intent: dispatch.Intent{Kind: dispatch.KindNavigate}, up: true}, nil
		case "/", "~":
			return command{intent: dispatch.Intent{Kind: dispatch.KindNavigate, Folder: types.Root}}, nil
		}
		return command{intent: dispatch.Intent{Kind: dispatch.KindNavigate, Folder: types.FolderID(args[0])}}, nil

	case "ls", "l", "refresh":
		return command{intent: dispatch.Intent{Kind: dispatch.KindRefresh}}, nil

	case "mkdir":
		return command{intent: dispatch.Intent{Kind: dispatch.KindCreateDirectory, Name: strings.Join(args, " ")}}, nil

	case "rename", "mv":
		if len(args) < 1 {
			return command{}, fmt.Errorf("usage: rename <id> <new name>")
		}
		return command{intent: dispatch.Intent{
			Kind: dispatch.KindRename,
			Item: types.ItemID(args[0]),
			Name: strings.Join(args[1:], " "),
		}}, nil

	case "rm", "delete":
		if len(args) != 1 {
			return command{}, fmt.Errorf("usage: rm <id>")
		}
		return command{intent: dispatch.Intent{Kind: dispatch.KindDelete, Item: types.ItemID(args[0])}}, nil

	case "put", "upload":
		c := command{intent: dispatch.Intent{Kind: dispatch.KindUpload}}
		for i := 0; i < len(args); i++ {
			if args[i] == "-e" || args[i] == "--expires" {
				if i+1 >= len(args) {
					return command{}, fmt.Errorf("%s needs a value like 90m, 12h or 1d", args[i])
				}
				exp, err := ParseExpiration(args[i+1])
				if err != nil {
					return command{}, err
				}
				c.intent.Expiration = &exp
				i++
				continue
			}
			c.paths = append(c.paths, args[i])
		}
		if len(c.paths) == 0 {
			return command{}, fmt.Errorf("usage: put [-e 1d] <path>...")
		}
		return c, nil
	}

	return command{}, fmt.Errorf("unknown command: %s", cmd)
}

// ParseExpiration reads "<value>[unit]" such as "90", "12h" or "1.5d".
// A missing unit means minutes.
func ParseExpiration(s string) (dispatch.Expiration, error) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, func(r rune) bool { return (r < '0' || r > '9') && r != '.' })
	num, unit := s, ""
	if i >= 0 {
		num, unit = s[:i], s[i:]
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return dispatch.Expiration{}, fmt.Errorf("invalid expiration %q", s)
	}
	u := upload.UnitMinutes
	if unit != "" {
		if u, err = upload.ParseUnit(unit); err != nil {
			return dispatch.Expiration{}, err
		}
	}
	return dispatch.Expiration{Value: v, Unit: u}, nil
}
