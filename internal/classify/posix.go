package classify

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

var posixReadCommands = map[string]bool{
	"cat": true, "df": true, "du": true, "echo": true, "file": true,
	"find": true, "free": true, "grep": true, "head": true, "id": true,
	"less": true, "ls": true, "printenv": true, "printf": true, "ps": true,
	"pwd": true, "stat": true, "tail": true, "uname": true, "uptime": true,
	"wc": true, "which": true, "whoami": true,
}

// Utilities that only report when run without arguments. With arguments they
// can set system state ("date -s", "hostname NAME").
var posixBareReadCommands = map[string]bool{
	"date": true, "hostname": true,
}

var posixWriteCommands = map[string]bool{
	"chmod": true, "chown": true, "cp": true, "dd": true, "kill": true,
	"ln": true, "mkdir": true, "mv": true, "rm": true, "rmdir": true,
	"tee": true, "touch": true, "truncate": true,
}

// find arguments that turn a listing into an action.
var findActions = map[string]bool{
	"-delete": true, "-exec": true, "-execdir": true, "-ok": true, "-okdir": true,
	"-fprint": true, "-fprint0": true, "-fprintf": true, "-fls": true,
}

// Posix classifies a POSIX shell command. The command is parsed rather than
// prefix-matched, but the outcome is just as conservative: anything that is
// not a plain invocation of a known read-only utility needs confirmation.
func Posix(command string) Kind {
	if strings.Contains(command, "|") {
		return Unknown
	}

	file, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil || len(file.Stmts) == 0 {
		return Unknown
	}

	kind := Read
	for _, stmt := range file.Stmts {
		kind = combine(kind, stmtKind(stmt))
	}
	return kind
}

func stmtKind(stmt *syntax.Stmt) Kind {
	if stmt.Background || stmt.Coprocess || stmt.Negated {
		return Unknown
	}
	if hasSubstitution(stmt) {
		return Unknown
	}

	kind := Read
	for _, redir := range stmt.Redirs {
		kind = combine(kind, redirectKind(redir))
	}

	switch cmd := stmt.Cmd.(type) {
	case *syntax.CallExpr:
		return combine(kind, callKind(cmd))
	case *syntax.BinaryCmd:
		if cmd.Op != syntax.AndStmt && cmd.Op != syntax.OrStmt {
			return Unknown
		}
		return combine(kind, combine(stmtKind(cmd.X), stmtKind(cmd.Y)))
	default:
		return Unknown
	}
}

func callKind(call *syntax.CallExpr) Kind {
	if len(call.Assigns) > 0 || len(call.Args) == 0 {
		return Unknown
	}

	name := call.Args[0].Lit()
	if name == "" {
		return Unknown
	}

	switch {
	case name == "find":
		for _, arg := range call.Args[1:] {
			if findActions[arg.Lit()] {
				return Unknown
			}
		}
		return Read
	case posixBareReadCommands[name]:
		if len(call.Args) == 1 {
			return Read
		}
		return Unknown
	case posixReadCommands[name]:
		return Read
	case posixWriteCommands[name]:
		return Write
	default:
		return Unknown
	}
}

func redirectKind(redir *syntax.Redirect) Kind {
	switch redir.Op {
	case syntax.RdrOut, syntax.AppOut, syntax.RdrAll, syntax.AppAll, syntax.ClbOut, syntax.RdrInOut:
		if redir.Word != nil && redir.Word.Lit() == "/dev/null" {
			return Read
		}
		return Write
	case syntax.DplOut, syntax.DplIn:
		// ">& file" writes to file.
		if redir.Word != nil && (isDescriptor(redir.Word.Lit()) || redir.Word.Lit() == "/dev/null") {
			return Read
		}
		return Write
	default:
		return Read
	}
}

// isDescriptor reports whether word names a file descriptor ("1", "2-") or
// closes one ("-").
func isDescriptor(word string) bool {
	if word == "-" {
		return true
	}
	word = strings.TrimSuffix(word, "-")
	if word == "" {
		return false
	}
	for _, r := range word {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func hasSubstitution(node syntax.Node) bool {
	found := false
	syntax.Walk(node, func(n syntax.Node) bool {
		switch n.(type) {
		case *syntax.CmdSubst, *syntax.ProcSubst:
			found = true
		}
		return !found
	})
	return found
}

func combine(a, b Kind) Kind {
	if a == Unknown || b == Unknown {
		return Unknown
	}
	if a == Write || b == Write {
		return Write
	}
	return Read
}
