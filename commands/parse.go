// Package commands parses the slash commands typed in chat and the opaque
// payloads carried by inline buttons.
package commands

import "strings"

// Command is a parsed "/name arg1 arg2 ..." line.
type Command struct {
	Name string
	Args []string
	// Rest is everything after the name, spacing preserved.
	Rest string
}

// Parse recognises a slash command. Plain text returns ok=false.
func Parse(input string) (Command, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") || len(input) == 1 {
		return Command{}, false
	}

	name, rest, _ := strings.Cut(input[1:], " ")
	// "/done@notula_bot" addresses a specific bot in group chats.
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return Command{}, false
	}

	rest = strings.TrimSpace(rest)
	return Command{
		Name: strings.ToLower(name),
		Args: strings.Fields(rest),
		Rest: rest,
	}, true
}

// Arg returns the i-th argument, or "" when there are fewer.
func (c Command) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

// Callback is a decoded button payload of the form kind[:field[:value]].
type Callback struct {
	Kind  string
	Field string
	Value string
}

func ParseCallback(data string) Callback {
	parts := strings.SplitN(strings.TrimSpace(data), ":", 3)
	cb := Callback{Kind: parts[0]}
	if len(parts) > 1 {
		cb.Field = parts[1]
	}
	if len(parts) > 2 {
		cb.Value = parts[2]
	}
	return cb
}

func (c Callback) String() string {
	switch {
	case c.Value != "":
		return c.Kind + ":" + c.Field + ":" + c.Value
	case c.Field != "":
		return c.Kind + ":" + c.Field
	}
	return c.Kind
}
