// Package access defines who may run a trigger and from where.
package access

type (
	// Level is ordered: a higher level satisfies every lower requirement
	Level int

	// Path restricts where a trigger may be invoked from
	Path int
)

const (
	Everyone Level = iota
	ChannelOps
	GlobalOps
	RootOnly
)

const (
	All Path = iota
	ChannelOnly
	PMOnly
)

var (
	levelNames = []string{"Everyone", "ChannelOps", "GlobalOps", "RootOnly"}
	pathNames  = []string{"All", "ChannelOnly", "PMOnly"}
)

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "Unknown"
	}
	return levelNames[l]
}

func (p Path) String() string {
	if p < 0 || int(p) >= len(pathNames) {
		return "Unknown"
	}
	return pathNames[p]
}

// Resolve returns the highest level the sender's roles grant
func Resolve(channelOp, globalOp, owner bool) Level {
	switch {
	case owner:
		return RootOnly
	case globalOp:
		return GlobalOps
	case channelOp:
		return ChannelOps
	}
	return Everyone
}

// Allows reports whether a message arriving privately or in a channel may use the path
func (p Path) Allows(private bool) bool {
	switch p {
	case ChannelOnly:
		return !private
	case PMOnly:
		return private
	}
	return true
}

// Authorized is the full check: level high enough and path satisfied
func Authorized(level Level, private bool, required Level, path Path) bool {
	return level >= required && path.Allows(private)
}
