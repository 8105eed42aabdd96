package executor

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mattn/go-shellwords"
)

// ErrCommandNotPermitted is returned for raw commands outside the allow-list
var ErrCommandNotPermitted = errors.New("command not permitted")

// forbidden are rejected anywhere in a raw command line
const forbidden = ";&|$><`\n\r"

// longPrefixes run under the Long timeout class
var longPrefixes = [][]string{
	{"docker-compose", "build"},
	{"docker", "build"},
}

// permittedOptions lists the options accepted after a prefix, keyed by
// program and subcommand. Any other argument starting with "-" is rejected,
// which keeps options such as git's --upload-pack or --output out of reach.
// Prefixes without an entry accept positional arguments only.
var permittedOptions = map[string][]string{
	"docker ps":              {"-a", "--all", "--filter", "--format", "-n", "--last", "-l", "--latest", "--no-trunc", "-q", "--quiet", "-s", "--size"},
	"docker logs":            {"-n", "--tail", "--since", "--until", "-t", "--timestamps", "--details"},
	"docker inspect":         {"--format", "--type", "-s", "--size"},
	"docker stats":           {"-a", "--all", "--format", "--no-stream", "--no-trunc"},
	"docker images":          {"-a", "--all", "--digests", "--filter", "--format", "--no-trunc", "-q", "--quiet"},
	"docker-compose ps":      {"-a", "--all", "--filter", "--format", "-q", "--quiet", "--services", "--status"},
	"docker-compose logs":    {"-n", "--tail", "--since", "--until", "-t", "--timestamps", "--no-color", "--no-log-prefix"},
	"docker-compose config":  {"--services", "--volumes", "--images", "-q", "--quiet"},
	"docker-compose up":      {"-d", "--detach", "--no-build", "--no-deps", "--no-recreate", "--force-recreate", "--remove-orphans", "--wait"},
	"docker-compose stop":    {"-t", "--timeout"},
	"docker-compose down":    {"--remove-orphans", "-t", "--timeout"},
	"docker-compose restart": {"-t", "--timeout"},
	"docker-compose build":   {"--no-cache", "--pull", "-q", "--quiet"},
	"docker-compose pull":    {"--ignore-pull-failures", "--include-deps", "-q", "--quiet"},
	"git status":             {"-s", "--short", "-b", "--branch", "--porcelain"},
	"git log":                {"--oneline", "-n", "--max-count", "--since", "--until", "--author", "--stat", "--graph", "--decorate"},
}

// AllowList holds the command prefixes accepted by the raw execute endpoint.
// It is immutable after construction.
type AllowList struct {
	prefixes [][]string
}

// NewAllowList builds an allow-list from prefixes such as "docker ps"
func NewAllowList(prefixes []string) (*AllowList, error) {
	a := &AllowList{}
	for _, p := range prefixes {
		words := strings.Fields(p)
		if len(words) == 0 {
			return nil, errors.New("empty command prefix")
		}
		if strings.ContainsAny(p, forbidden) {
			return nil, fmt.Errorf("command prefix %q contains shell metacharacters", p)
		}
		a.prefixes = append(a.prefixes, words)
	}
	if len(a.prefixes) == 0 {
		return nil, errors.New("allow-list must contain at least one command prefix")
	}
	return a, nil
}

// Prefixes returns the configured prefixes
func (a *AllowList) Prefixes() []string {
	out := make([]string, 0, len(a.prefixes))
	for _, words := range a.prefixes {
		out = append(out, strings.Join(words, " "))
	}
	return out
}

// Permits reports whether the line starts with an allowed prefix on whole words
func (a *AllowList) Permits(line string) bool {
	return a.match(strings.Fields(line)) != nil
}

// match returns the longest prefix the words start with, nil when none does
func (a *AllowList) match(words []string) []string {
	var best []string
	for _, prefix := range a.prefixes {
		if hasWordPrefix(words, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	return best
}

// Parse validates a raw command line and splits it into a Command.
// Checks run in order: allow-list, metacharacters, tokenization, options.
func (a *AllowList) Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, fmt.Errorf("%w: empty command", ErrCommandNotPermitted)
	}
	if !a.Permits(line) {
		return Command{}, fmt.Errorf("%w: %q does not match an allowed prefix", ErrCommandNotPermitted, line)
	}
	if strings.ContainsAny(line, forbidden) {
		return Command{}, fmt.Errorf("%w: shell metacharacters are not allowed", ErrCommandNotPermitted)
	}

	parser := shellwords.NewParser()
	parser.ParseEnv = false
	parser.ParseBacktick = false
	args, err := parser.Parse(line)
	if err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrCommandNotPermitted, err)
	}
	prefix := a.match(args)
	if prefix == nil {
		return Command{}, fmt.Errorf("%w: %q does not match an allowed prefix", ErrCommandNotPermitted, line)
	}
	if err := checkOptions(prefix, args[len(prefix):]); err != nil {
		return Command{}, err
	}

	cmd := Command{Name: args[0], Args: args[1:], Class: Default}
	for _, long := range longPrefixes {
		if hasWordPrefix(args, long) {
			cmd.Class = Long
			break
		}
	}
	return cmd, nil
}

// checkOptions rejects every option after the prefix that is not listed for it
func checkOptions(prefix, rest []string) error {
	key := prefix[0]
	if len(prefix) > 1 {
		key += " " + prefix[1]
	}
	for _, arg := range rest {
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		name, _, _ := strings.Cut(arg, "=")
		if !slices.Contains(permittedOptions[key], name) {
			return fmt.Errorf("%w: option %q is not allowed for %q", ErrCommandNotPermitted, name, key)
		}
	}
	return nil
}

func hasWordPrefix(words, prefix []string) bool {
	if len(words) < len(prefix) {
		return false
	}
	for i, w := range prefix {
		if words[i] != w {
			return false
		}
	}
	return true
}
